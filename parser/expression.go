package parser

import (
	"github.com/shopspring/decimal"
)

// Arithmetic expressions in amounts are evaluated at parse time with decimal
// precision.
//
//	expression  → term (('+' | '-') term)*
//	term        → factor (('*' | '/') factor)*
//	factor      → NUMBER | '-' factor | '(' expression ')'

func (p *Parser) parseExpression() (decimal.Decimal, error) {
	left, err := p.parseTerm()
	if err != nil {
		return decimal.Zero, err
	}

	for {
		op := p.peek().Type
		if op != PLUS && op != MINUS {
			break
		}
		p.advance()

		right, err := p.parseTerm()
		if err != nil {
			return decimal.Zero, err
		}

		if op == PLUS {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}

	return left, nil
}

func (p *Parser) parseTerm() (decimal.Decimal, error) {
	left, err := p.parseFactor()
	if err != nil {
		return decimal.Zero, err
	}

	for {
		op := p.peek().Type
		if op != ASTERISK && op != SLASH {
			break
		}
		opTok := p.advance()

		right, err := p.parseFactor()
		if err != nil {
			return decimal.Zero, err
		}

		if op == ASTERISK {
			left = left.Mul(right)
			continue
		}
		if right.IsZero() {
			return decimal.Zero, p.errorAtToken(opTok, "division by zero")
		}
		left = left.Div(right)
	}

	return left, nil
}

func (p *Parser) parseFactor() (decimal.Decimal, error) {
	tok := p.peek()

	switch tok.Type {
	case LPAREN:
		p.advance()
		result, err := p.parseExpression()
		if err != nil {
			return decimal.Zero, err
		}
		if !p.match(RPAREN) {
			return decimal.Zero, p.error("expected ')' after expression")
		}
		return result, nil

	case NUMBER:
		p.advance()
		d, err := decimal.NewFromString(tok.String(p.source))
		if err != nil {
			return decimal.Zero, p.errorAtToken(tok, "invalid number in expression: %v", err)
		}
		return d, nil

	case MINUS:
		p.advance()
		value, err := p.parseFactor()
		if err != nil {
			return decimal.Zero, err
		}
		return value.Neg(), nil
	}

	return decimal.Zero, p.errorAtToken(tok, "expected number or '(' in expression, got %s", tok.Type)
}

// isExpressionStart reports whether the amount at the current position is an
// expression rather than a plain number.
func (p *Parser) isExpressionStart() bool {
	if p.check(NUMBER) {
		next := p.peekAhead(1)
		if next.Line != p.peek().Line {
			return false
		}
		switch next.Type {
		case PLUS, MINUS, ASTERISK, SLASH:
			return true
		}
		return false
	}

	return p.check(LPAREN) || p.check(MINUS)
}
