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

package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minidb-io/minidb/internal/scalar"
)

// parser walks a token slice with a single cursor; there is no
// backtracking because the grammar is LL(1) at every decision point
// reached here.
type parser struct {
	toks []Token
	pos  int
	src  string
}

// Parse parses a single ";"-terminated statement.
func Parse(src string) (*Request, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}
	p := &parser{toks: toks, src: src}
	return p.parseStatement()
}

func (p *parser) cur() Token  { return p.toks[p.pos] }
func (p *parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k Kind, what string) (Token, error) {
	if p.cur().Kind != k {
		return Token{}, fmt.Errorf("expected %s, got %q", what, p.cur().Text)
	}
	return p.advance(), nil
}

func (p *parser) parseStatement() (*Request, error) {
	if _, err := p.expect(SELECT, "SELECT"); err != nil {
		return nil, err
	}

	req := &Request{Source: p.src}

	for {
		if err := p.parseProjectionItem(req); err != nil {
			return nil, err
		}
		if p.cur().Kind == COMMA {
			p.advance()
			continue
		}
		break
	}

	if _, err := p.expect(FROM, "FROM"); err != nil {
		return nil, err
	}
	table, err := p.expect(IDENT, "table name")
	if err != nil {
		return nil, fmt.Errorf("table name missing: %w", err)
	}
	req.Table = table.Text

	if p.cur().Kind == WHERE {
		p.advance()
		for {
			f, err := p.parsePredicate()
			if err != nil {
				return nil, err
			}
			req.Filters = append(req.Filters, f)
			// A comma between predicates is treated as an implicit AND,
			// same as the AND keyword.
			if p.cur().Kind == AND || p.cur().Kind == COMMA {
				p.advance()
				continue
			}
			break
		}
	}

	if p.cur().Kind == GROUP {
		p.advance()
		if _, err := p.expect(BY, "BY"); err != nil {
			return nil, err
		}
		for {
			ident, err := p.expect(IDENT, "group-by column")
			if err != nil {
				return nil, err
			}
			req.GroupBy = append(req.GroupBy, ident.Text)
			if p.cur().Kind == COMMA {
				p.advance()
				continue
			}
			break
		}
	}

	if _, err := p.expect(SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return req, nil
}

func (p *parser) parseProjectionItem(req *Request) error {
	if fn, ok := aggregateFnFor(p.cur()); ok {
		p.advance()
		if _, err := p.expect(LPAREN, "'('"); err != nil {
			return err
		}
		var agg Aggregate
		agg.Fn = fn
		if p.cur().Kind == STAR {
			p.advance()
			agg.Star = true
		} else {
			ident, err := p.expect(IDENT, "column name or '*'")
			if err != nil {
				return err
			}
			agg.Column = ident.Text
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return err
		}
		if agg.Star {
			agg.Output = fmt.Sprintf("%s(*)", agg.Fn)
		} else {
			agg.Output = fmt.Sprintf("%s(%s)", agg.Fn, agg.Column)
		}
		req.Aggregates = append(req.Aggregates, agg)
		return nil
	}

	if p.cur().Kind == STAR {
		p.advance()
		req.Projections = append(req.Projections, "*")
		return nil
	}

	ident, err := p.expect(IDENT, "column name")
	if err != nil {
		return err
	}
	req.Projections = append(req.Projections, ident.Text)
	return nil
}

func aggregateFnFor(t Token) (AggregateFn, bool) {
	if t.Kind != IDENT {
		return 0, false
	}
	switch strings.ToUpper(t.Text) {
	case "COUNT":
		return Count, true
	case "SUM":
		return Sum, true
	case "AVG":
		return Avg, true
	case "MIN":
		return Min, true
	case "MAX":
		return Max, true
	default:
		return 0, false
	}
}

func (p *parser) parsePredicate() (Filter, error) {
	col, err := p.expect(IDENT, "column name")
	if err != nil {
		return Filter{}, err
	}

	if p.cur().Kind == BETWEEN {
		p.advance()
		low, err := p.parseLiteral()
		if err != nil {
			return Filter{}, err
		}
		if _, err := p.expect(AND, "AND"); err != nil {
			return Filter{}, err
		}
		high, err := p.parseLiteral()
		if err != nil {
			return Filter{}, err
		}
		return Filter{Column: col.Text, Op: OpBetween, Value: low, High: &high}, nil
	}

	op, err := p.parseCmpOp()
	if err != nil {
		return Filter{}, err
	}
	val, err := p.parseLiteral()
	if err != nil {
		return Filter{}, err
	}
	return Filter{Column: col.Text, Op: op, Value: val}, nil
}

func (p *parser) parseCmpOp() (CmpOp, error) {
	switch p.cur().Kind {
	case EQ:
		p.advance()
		return OpEq, nil
	case LT:
		p.advance()
		return OpLt, nil
	case GT:
		p.advance()
		return OpGt, nil
	case LE:
		p.advance()
		return OpLe, nil
	case GE:
		p.advance()
		return OpGe, nil
	default:
		return 0, fmt.Errorf("expected a comparison operator, got %q", p.cur().Text)
	}
}

// parseLiteral parses a number or quoted string; numbers try integer
// first, then float, matching the original parser's literal resolution.
func (p *parser) parseLiteral() (scalar.Value, error) {
	tok := p.cur()
	switch tok.Kind {
	case NUMBER:
		p.advance()
		if i, err := strconv.ParseInt(tok.Text, 10, 64); err == nil {
			return scalar.OfInt(i), nil
		}
		if f, err := strconv.ParseFloat(tok.Text, 64); err == nil {
			return scalar.OfFloat(f), nil
		}
		return scalar.Value{}, fmt.Errorf("invalid numeric literal %q", tok.Text)
	case STRING:
		p.advance()
		return scalar.OfString(tok.Text), nil
	default:
		return scalar.Value{}, fmt.Errorf("expected a literal, got %q", tok.Text)
	}
}
