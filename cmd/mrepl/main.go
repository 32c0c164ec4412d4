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

// Command mrepl is a thin interactive client for a coordinator's HTTP
// query surface: it sends a PING handshake, then reads ";"-terminated
// statements from stdin and prints whatever the coordinator returns.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

func main() {
	host := flag.String("host", "127.0.0.1", "coordinator host")
	port := flag.Int("port", 0, "coordinator port")
	path := flag.String("path", "/query", "coordinator query path")
	flag.Parse()

	if *port == 0 {
		fmt.Fprintln(os.Stderr, "usage: mrepl --port <n> [--host <addr>] [--path /query]")
		os.Exit(1)
	}

	endpoint := fmt.Sprintf("http://%s:%d%s", *host, *port, *path)
	fmt.Printf("Connecting to coordinator at %s ...\n", endpoint)

	resp, err := sendRequest(endpoint, "PING")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending query: %s\n", err)
		os.Exit(1)
	}
	if strings.TrimSpace(resp) != "PONG" {
		fmt.Fprintf(os.Stderr, "Coordinator handshake failed: expected PONG, got %s\n", strings.TrimSpace(resp))
		os.Exit(1)
	}
	fmt.Printf("Coordinator replied: %s\n", strings.TrimSpace(resp))

	in := bufio.NewScanner(os.Stdin)
	var buf strings.Builder
	prompt := "minidist> "

	for {
		fmt.Print(prompt)
		if !in.Scan() {
			break
		}
		buf.WriteString(in.Text())
		buf.WriteByte('\n')

		if !strings.HasSuffix(strings.TrimRight(buf.String(), "\n"), ";") {
			prompt = "... "
			continue
		}

		resp, err := sendRequest(endpoint, buf.String())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error sending query: %s\n", err)
		} else {
			fmt.Println(resp)
		}

		buf.Reset()
		prompt = "minidist> "
	}
}

func sendRequest(endpoint, body string) (string, error) {
	resp, err := http.Post(endpoint, "text/plain", strings.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
