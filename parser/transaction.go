package parser

import "github.com/robinvdvleuten/beancount-forecast/ast"

// parseTransaction parses:
//
//	DATE [txn] FLAG [PAYEE] NARRATION [TAG|LINK]*
//	  [METADATA]*
//	  [POSTING]*
func (p *Parser) parseTransaction(pos ast.Position, date *ast.Date) (*ast.Transaction, error) {
	txn := &ast.Transaction{
		Pos:  pos,
		Date: date,
	}

	hasKeyword := p.match(TXN)

	switch {
	case p.check(ASTERISK), p.check(EXCLAIM), p.check(FLAG):
		tok := p.advance()
		txn.Flag = p.interner.InternBytes(tok.Bytes(p.source))
	case hasKeyword:
		txn.Flag = ast.FlagCleared
	case p.check(STRING):
		// A bare string after the date is a padding entry.
		txn.Flag = ast.FlagPadding
	default:
		return nil, p.error("expected transaction flag or 'txn'")
	}

	// One string is the narration, two are payee and narration.
	if p.check(STRING) {
		first, err := p.parseString()
		if err != nil {
			return nil, err
		}

		if p.check(STRING) {
			second, err := p.parseString()
			if err != nil {
				return nil, err
			}
			txn.Payee = first
			txn.Narration = second
		} else {
			txn.Narration = first
		}
	}

	for (p.check(TAG) || p.check(LINK)) && p.peek().Line == pos.Line {
		if p.check(TAG) {
			tag, err := p.parseTag()
			if err != nil {
				return nil, err
			}
			txn.Tags = append(txn.Tags, tag)
			continue
		}
		link, err := p.parseLink()
		if err != nil {
			return nil, err
		}
		txn.Links = append(txn.Links, link)
	}

	if tok := p.peek(); !p.isAtEnd() && tok.Line == pos.Line {
		return nil, p.errorAtToken(tok, "unexpected %s %q in transaction header", tok.Type, tok.String(p.source))
	}

	txn.Metadata = p.parseMetadata(pos.Line)

	postings, err := p.parsePostings(pos.Line)
	if err != nil {
		return nil, err
	}
	txn.Postings = postings

	return txn, nil
}

// parsePostings parses the indented posting lines below a transaction header.
func (p *Parser) parsePostings(headerLine int) ([]*ast.Posting, error) {
	postings := make([]*ast.Posting, 0, 4)

	for !p.isAtEnd() {
		tok := p.peek()

		// Postings must be indented, which also tells them apart from org-mode headers.
		if tok.Column <= 1 || tok.Line <= headerLine {
			break
		}

		if tok.Type != ASTERISK && tok.Type != EXCLAIM && tok.Type != FLAG && tok.Type != ACCOUNT {
			return nil, p.errorAtToken(tok, "expected posting but got %s %q", tok.Type, tok.String(p.source))
		}

		posting, err := p.parsePosting()
		if err != nil {
			return nil, err
		}

		postings = append(postings, posting)
	}

	return postings, nil
}

// parsePosting parses:
//
//	[FLAG] ACCOUNT [AMOUNT] [COST] [@|@@ PRICE]
//	  [METADATA]*
func (p *Parser) parsePosting() (*ast.Posting, error) {
	first := p.peek()
	posting := &ast.Posting{Pos: p.position(first)}

	if p.check(ASTERISK) || p.check(EXCLAIM) || p.check(FLAG) {
		tok := p.advance()
		posting.Flag = p.interner.InternBytes(tok.Bytes(p.source))
	}

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}
	posting.Account = account

	onLine := func() bool { return !p.isAtEnd() && p.peek().Line == first.Line }

	if onLine() && (p.check(NUMBER) || p.check(LPAREN) || p.check(MINUS)) {
		amount, err := p.parseAmountOptional()
		if err != nil {
			return nil, err
		}
		posting.Amount = amount
	}

	if onLine() && (p.check(LBRACE) || p.check(LDBRACE)) {
		cost, err := p.parseCost()
		if err != nil {
			return nil, err
		}
		posting.Cost = cost
	}

	if onLine() && (p.check(AT) || p.check(ATAT)) {
		posting.PriceTotal = p.advance().Type == ATAT

		amount, err := p.parseAmount()
		if err != nil {
			return nil, err
		}
		posting.Price = amount
	}

	if onLine() {
		tok := p.peek()
		return nil, p.errorAtToken(tok, "unexpected %s %q in posting", tok.Type, tok.String(p.source))
	}

	posting.Metadata = p.parseMetadata(first.Line)

	return posting, nil
}
