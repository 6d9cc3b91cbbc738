package parser

import (
	"strconv"
	"strings"

	"github.com/robinvdvleuten/beancount-forecast/ast"
)

// Helper parsing methods shared by the directive parsers.

func (p *Parser) parseDate() (*ast.Date, error) {
	tok := p.expect(DATE, "expected date")
	if tok.Type == ILLEGAL {
		return nil, p.error("expected date")
	}

	var date ast.Date
	if err := date.Capture([]string{tok.String(p.source)}); err != nil {
		return nil, p.errorAtToken(tok, "%v", err)
	}

	return &date, nil
}

// parseAccount parses an ACCOUNT token. Account names are interned.
func (p *Parser) parseAccount() (ast.Account, error) {
	tok := p.expect(ACCOUNT, "expected account")
	if tok.Type == ILLEGAL {
		actual := p.peek()
		return "", p.errorAtToken(actual, "expected account but got %s %q", actual.Type, actual.String(p.source))
	}

	name := p.interner.InternBytes(tok.Bytes(p.source))

	var account ast.Account
	if err := account.Capture([]string{name}); err != nil {
		return "", p.errorAtToken(tok, "invalid account: %v", err)
	}

	return account, nil
}

// parseAmount parses NUMBER CURRENCY or EXPRESSION CURRENCY.
//
//	100.50 USD           kept as written
//	-50.00 USD           kept as written
//	(40.00/3) USD        evaluated at parse time
func (p *Parser) parseAmount() (*ast.Amount, error) {
	amount, err := p.parseAmountOptional()
	if err != nil {
		return nil, err
	}
	if amount.Currency == "" {
		return nil, p.error("expected currency")
	}
	return amount, nil
}

// parseAmountOptional parses an amount whose currency may be omitted, as in
// postings where it is inferred downstream.
func (p *Parser) parseAmountOptional() (*ast.Amount, error) {
	var value string

	if p.isExpressionStart() {
		result, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		value = result.String()
	} else {
		numTok := p.expect(NUMBER, "expected number")
		if numTok.Type == ILLEGAL {
			return nil, p.error("expected number")
		}
		value = numTok.String(p.source)
	}

	currency := ""
	if p.check(IDENT) && p.peek().Line == p.previous().Line {
		currTok := p.advance()
		currency = p.interner.InternBytes(currTok.Bytes(p.source))
	}

	return &ast.Amount{
		Value:    value,
		Currency: currency,
	}, nil
}

// parseCost parses a cost specification. Components are separated by commas
// and may appear in any order:
//
//	{518.73 USD}
//	{518.73 USD, 2014-05-01, "first-lot"}
//	{{5187.30 USD}}
//	{*}
//	{}
func (p *Parser) parseCost() (*ast.Cost, error) {
	cost := &ast.Cost{}

	closing := RBRACE
	if p.match(LDBRACE) {
		cost.IsTotal = true
		closing = RDBRACE
	} else if !p.match(LBRACE) {
		return nil, p.error("expected '{'")
	}

	for !p.check(closing) {
		switch {
		case p.match(ASTERISK):
			cost.IsMerge = true
		case p.check(DATE):
			date, err := p.parseDate()
			if err != nil {
				return nil, err
			}
			cost.Date = date
		case p.check(STRING):
			label, err := p.parseString()
			if err != nil {
				return nil, err
			}
			cost.Label = label
		case p.check(NUMBER) || p.check(LPAREN) || p.check(MINUS):
			amount, err := p.parseAmount()
			if err != nil {
				return nil, err
			}
			cost.Amount = amount
		default:
			return nil, p.error("unexpected %s in cost specification", p.peek().Type)
		}

		if !p.match(COMMA) {
			break
		}
	}

	if p.consume(closing, "expected closing brace").Type == ILLEGAL {
		return nil, p.error("expected %s to close cost specification", closing)
	}

	return cost, nil
}

// parseString parses a STRING token and unquotes it.
func (p *Parser) parseString() (string, error) {
	tok := p.expect(STRING, "expected string")
	if tok.Type == ILLEGAL {
		return "", p.error("expected string")
	}

	raw := tok.String(p.source)
	if len(raw) < 2 || raw[len(raw)-1] != '"' {
		return "", p.errorAtToken(tok, "unterminated string")
	}

	return p.interner.Intern(unquoteString(raw)), nil
}

func (p *Parser) parseIdent() (string, error) {
	tok := p.peek()
	if tok.Type != IDENT && !tok.Type.IsKeyword() {
		return "", p.errorAtToken(tok, "expected identifier")
	}
	p.advance()
	return p.interner.InternBytes(tok.Bytes(p.source)), nil
}

func (p *Parser) parseTag() (ast.Tag, error) {
	tok := p.expect(TAG, "expected tag")
	if tok.Type == ILLEGAL {
		return "", p.error("expected tag")
	}

	var tag ast.Tag
	if err := tag.Capture([]string{tok.String(p.source)}); err != nil {
		return "", p.errorAtToken(tok, "invalid tag: %v", err)
	}

	return tag, nil
}

func (p *Parser) parseLink() (ast.Link, error) {
	tok := p.expect(LINK, "expected link")
	if tok.Type == ILLEGAL {
		return "", p.error("expected link")
	}

	var link ast.Link
	if err := link.Capture([]string{tok.String(p.source)}); err != nil {
		return "", p.errorAtToken(tok, "invalid link: %v", err)
	}

	return link, nil
}

// isMetadataStart reports whether the next token begins an indented
// "key: value" line below headerLine.
func (p *Parser) isMetadataStart(headerLine int) bool {
	keyTok := p.peek()
	if keyTok.Line <= headerLine || keyTok.Column <= 1 {
		return false
	}
	if keyTok.Type != IDENT && !keyTok.Type.IsKeyword() {
		return false
	}
	// Keys start with a lower-case letter.
	if c := p.source[keyTok.Start]; c < 'a' || c > 'z' {
		return false
	}
	colon := p.peekAhead(1)
	return colon.Type == COLON && colon.Line == keyTok.Line && colon.Start == keyTok.End
}

// parseMetadata parses indented metadata lines following headerLine.
func (p *Parser) parseMetadata(headerLine int) []*ast.Metadata {
	var metadata []*ast.Metadata

	for p.isMetadataStart(headerLine) {
		keyTok := p.advance()
		colon := p.advance()

		metadata = append(metadata, p.parseMetadataValue(keyTok, colon))
	}

	return metadata
}

func (p *Parser) parseMetadataValue(keyTok, colon Token) *ast.Metadata {
	meta := &ast.Metadata{Key: p.interner.InternBytes(keyTok.Bytes(p.source))}

	// A lone string literal is stored unquoted and written back with quotes.
	if p.check(STRING) && p.peek().Line == colon.Line {
		next := p.peekAhead(1)
		if next.Type == EOF || next.Line != colon.Line {
			tok := p.advance()
			meta.Value = unquoteString(tok.String(p.source))
			meta.Quoted = true
			return meta
		}
	}

	meta.Value = p.parseRestOfLine(colon)
	return meta
}

// parseRestOfLine reads all tokens on after's line and returns the source
// text they span, including the original spacing between them.
func (p *Parser) parseRestOfLine(after Token) string {
	start, end := -1, after.End

	for !p.isAtEnd() && p.peek().Line == after.Line {
		tok := p.advance()
		if start < 0 {
			start = tok.Start
		}
		end = tok.End
	}

	if start < 0 {
		return ""
	}
	return strings.TrimSpace(string(p.source[start:end]))
}

// unquoteString removes surrounding quotes and resolves escape sequences.
func unquoteString(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if unquoted, err := strconv.Unquote(s); err == nil {
			return unquoted
		}
		return s[1 : len(s)-1]
	}
	return s
}

// Token navigation

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAhead(n int) Token {
	pos := p.pos + n
	if pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[pos]
}

func (p *Parser) previous() Token {
	if p.pos == 0 {
		return Token{Type: ILLEGAL}
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == EOF
}

func (p *Parser) check(typ TokenType) bool {
	return p.peek().Type == typ
}

func (p *Parser) match(types ...TokenType) bool {
	for _, typ := range types {
		if p.check(typ) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

// consume advances past a token of the given type, or returns an ILLEGAL
// token leaving the position unchanged.
func (p *Parser) consume(typ TokenType, _ string) Token {
	if p.check(typ) {
		return p.advance()
	}
	return Token{Type: ILLEGAL}
}

func (p *Parser) expect(typ TokenType, message string) Token {
	return p.consume(typ, message)
}

// Error helpers

func (p *Parser) errorAtToken(tok Token, format string, args ...any) error {
	return newErrorf(p.position(tok), format, args...)
}

func (p *Parser) error(format string, args ...any) error {
	return p.errorAtToken(p.peek(), format, args...)
}

func (p *Parser) position(tok Token) ast.Position {
	return ast.Position{
		Filename: p.filename,
		Offset:   tok.Start,
		Line:     tok.Line,
		Column:   tok.Column,
	}
}
