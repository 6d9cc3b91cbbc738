// Package parser turns ledger source into an ast.AST.
//
// Parsing runs in two passes: the Lexer scans the whole buffer into tokens,
// then a recursive-descent Parser walks them. Pushtag and pushmeta blocks are
// applied in file order, after which directives are sorted by date.
//
//	tree, err := parser.ParseBytesWithFilename(ctx, "main.beancount", data)
package parser

import (
	"context"
	"fmt"
	"io"

	"github.com/robinvdvleuten/beancount-forecast/ast"
	"github.com/robinvdvleuten/beancount-forecast/telemetry"
)

// Parser is a recursive-descent parser over a token stream.
type Parser struct {
	source   []byte
	filename string
	tokens   []Token
	pos      int
	interner *Interner
}

// NewParser creates a parser for source. Tokens are scanned immediately.
func NewParser(source []byte, filename string) *Parser {
	lexer := NewLexer(source, filename)
	return &Parser{
		source:   source,
		filename: filename,
		tokens:   lexer.ScanAll(),
		interner: lexer.Interner(),
	}
}

// Parse reads all of r and parses it.
func Parse(ctx context.Context, r io.Reader) (*ast.AST, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return ParseBytes(ctx, data)
}

// ParseString parses ledger source held in a string.
func ParseString(ctx context.Context, source string) (*ast.AST, error) {
	return ParseBytes(ctx, []byte(source))
}

// ParseBytes parses ledger source without a filename.
func ParseBytes(ctx context.Context, data []byte) (*ast.AST, error) {
	return ParseBytesWithFilename(ctx, "", data)
}

// ParseBytesWithFilename parses ledger source, attributing positions to filename.
func ParseBytesWithFilename(ctx context.Context, filename string, data []byte) (*ast.AST, error) {
	timer := telemetry.FromContext(ctx).Start(fmt.Sprintf("parser.parse %s", displayName(filename)))
	defer timer.End()

	lexTimer := timer.Child("parser.lex")
	p := NewParser(data, filename)
	lexTimer.End()

	parseTimer := timer.Child("parser.directives")
	tree, err := p.Parse()
	parseTimer.End()
	if err != nil {
		return nil, err
	}

	if err := ast.ApplyPushPopDirectives(tree); err != nil {
		return nil, err
	}
	if err := ast.SortDirectives(tree); err != nil {
		return nil, err
	}

	return tree, nil
}

func displayName(filename string) string {
	if filename == "" {
		return "<stdin>"
	}
	return filename
}

// Parse parses the token stream into an AST. Directives are returned in file
// order; ParseBytesWithFilename sorts them.
func (p *Parser) Parse() (*ast.AST, error) {
	tree := &ast.AST{
		Directives: make(ast.Directives, 0, len(p.tokens)/16),
	}

	for !p.isAtEnd() {
		tok := p.peek()

		switch tok.Type {
		case DATE:
			directive, err := p.parseDatedDirective()
			if err != nil {
				return nil, err
			}
			tree.Directives = append(tree.Directives, directive)

		case OPTION:
			option, err := p.parseOption()
			if err != nil {
				return nil, err
			}
			tree.Options = append(tree.Options, option)

		case INCLUDE:
			include, err := p.parseInclude()
			if err != nil {
				return nil, err
			}
			tree.Includes = append(tree.Includes, include)

		case PLUGIN:
			plugin, err := p.parsePlugin()
			if err != nil {
				return nil, err
			}
			tree.Plugins = append(tree.Plugins, plugin)

		case PUSHTAG:
			p.advance()
			tag, err := p.parseTag()
			if err != nil {
				return nil, err
			}
			tree.Pushtags = append(tree.Pushtags, &ast.Pushtag{Pos: p.position(tok), Tag: tag})

		case POPTAG:
			p.advance()
			tag, err := p.parseTag()
			if err != nil {
				return nil, err
			}
			tree.Poptags = append(tree.Poptags, &ast.Poptag{Pos: p.position(tok), Tag: tag})

		case PUSHMETA:
			pushmeta, err := p.parsePushmeta()
			if err != nil {
				return nil, err
			}
			tree.Pushmetas = append(tree.Pushmetas, pushmeta)

		case POPMETA:
			p.advance()
			key, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			if p.consume(COLON, "expected ':' after popmeta key").Type == ILLEGAL {
				return nil, p.error("expected ':' after popmeta key")
			}
			tree.Popmetas = append(tree.Popmetas, &ast.Popmeta{Pos: p.position(tok), Key: key})

		default:
			// Org-mode section headers are allowed between directives.
			if tok.Column == 1 && tok.Type == ASTERISK {
				p.skipLine()
				continue
			}
			return nil, p.errorAtToken(tok, "unexpected %s %q", tok.Type, tok.String(p.source))
		}
	}

	return tree, nil
}

// parseDatedDirective parses any directive that starts with a date.
func (p *Parser) parseDatedDirective() (ast.Directive, error) {
	startTok := p.peek()
	pos := p.position(startTok)

	date, err := p.parseDate()
	if err != nil {
		return nil, err
	}

	switch p.peek().Type {
	case TXN, ASTERISK, EXCLAIM, FLAG, STRING:
		return p.parseTransaction(pos, date)
	case OPEN:
		return p.parseOpen(pos, date)
	case CLOSE:
		return p.parseClose(pos, date)
	case BALANCE:
		return p.parseBalance(pos, date)
	case PAD:
		return p.parsePad(pos, date)
	case NOTE:
		return p.parseNote(pos, date)
	case DOCUMENT:
		return p.parseDocument(pos, date)
	case PRICE:
		return p.parsePrice(pos, date)
	case EVENT:
		return p.parseEvent(pos, date)
	case COMMODITY:
		return p.parseCommodity(pos, date)
	case CUSTOM:
		return p.parseCustom(pos, date)
	default:
		tok := p.peek()
		return nil, p.errorAtToken(tok, "unknown directive %q", tok.String(p.source))
	}
}

// skipLine consumes every token on the current line.
func (p *Parser) skipLine() {
	line := p.peek().Line
	for !p.isAtEnd() && p.peek().Line == line {
		p.advance()
	}
}
