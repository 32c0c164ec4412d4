// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package coordinator

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/minidb-io/minidb/internal/query"
)

// Server answers the coordinator's single-route HTTP query surface:
// every request body is either the literal string "PING" or a
// query statement, and the response is always 200 with the result (or
// an "Error: "-prefixed message) as a plain-text body.
type Server struct {
	Table       string
	WorkerPorts []int
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", s.handleQuery)
	return mux
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "Error: failed to read request body")
		return
	}
	text := string(body)

	if strings.EqualFold(strings.TrimSpace(text), "PING") {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "PONG")
		return
	}

	queryID := uuid.New()

	req, err := query.Parse(text)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "Error: "+err.Error())
		return
	}
	req.Table = s.Table

	log.Printf("query %s: dispatching to %d workers", queryID, len(s.WorkerPorts))
	result, err := RunQuery(r.Context(), s.WorkerPorts, req)
	if err != nil {
		log.Printf("query %s: failed: %v", queryID, err)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "Error: "+err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	io.WriteString(w, result)
}
