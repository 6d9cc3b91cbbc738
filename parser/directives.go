package parser

import (
	"github.com/robinvdvleuten/beancount-forecast/ast"
)

// Parsers for the non-transaction directives. Each consumes its keyword, the
// fixed arguments and any indented metadata.

// parseBalance parses: DATE balance ACCOUNT AMOUNT [~ TOLERANCE]
func (p *Parser) parseBalance(pos ast.Position, date *ast.Date) (*ast.Balance, error) {
	p.advance()

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	amount, err := p.parseAmountOptional()
	if err != nil {
		return nil, err
	}
	if p.match(TILDE) {
		tolerance, err := p.parseAmountOptional()
		if err != nil {
			return nil, err
		}
		if amount.Currency == "" {
			amount.Currency = tolerance.Currency
		}
	}
	if amount.Currency == "" {
		return nil, p.error("expected currency")
	}

	balance := &ast.Balance{
		Pos:     pos,
		Date:    date,
		Account: account,
		Amount:  amount,
	}
	balance.Metadata = p.parseMetadata(pos.Line)

	return balance, nil
}

// parseOpen parses: DATE open ACCOUNT [CURRENCY[,CURRENCY]*] ["BOOKING_METHOD"]
func (p *Parser) parseOpen(pos ast.Position, date *ast.Date) (*ast.Open, error) {
	p.advance()

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	open := &ast.Open{
		Pos:     pos,
		Date:    date,
		Account: account,
	}

	if p.check(IDENT) && p.peek().Line == pos.Line {
		for {
			currency, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			open.ConstraintCurrencies = append(open.ConstraintCurrencies, currency)

			if !p.match(COMMA) {
				break
			}
		}
	}

	if p.check(STRING) && p.peek().Line == pos.Line {
		method, err := p.parseString()
		if err != nil {
			return nil, err
		}
		open.BookingMethod = method
	}

	open.Metadata = p.parseMetadata(pos.Line)

	return open, nil
}

// parseClose parses: DATE close ACCOUNT
func (p *Parser) parseClose(pos ast.Position, date *ast.Date) (*ast.Close, error) {
	p.advance()

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	closing := &ast.Close{
		Pos:     pos,
		Date:    date,
		Account: account,
	}
	closing.Metadata = p.parseMetadata(pos.Line)

	return closing, nil
}

// parseCommodity parses: DATE commodity CURRENCY
func (p *Parser) parseCommodity(pos ast.Position, date *ast.Date) (*ast.Commodity, error) {
	p.advance()

	currency, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	commodity := &ast.Commodity{
		Pos:      pos,
		Date:     date,
		Currency: currency,
	}
	commodity.Metadata = p.parseMetadata(pos.Line)

	return commodity, nil
}

// parsePad parses: DATE pad ACCOUNT ACCOUNT_PAD
func (p *Parser) parsePad(pos ast.Position, date *ast.Date) (*ast.Pad, error) {
	p.advance()

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	accountPad, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	pad := &ast.Pad{
		Pos:        pos,
		Date:       date,
		Account:    account,
		AccountPad: accountPad,
	}
	pad.Metadata = p.parseMetadata(pos.Line)

	return pad, nil
}

// parseNote parses: DATE note ACCOUNT STRING
func (p *Parser) parseNote(pos ast.Position, date *ast.Date) (*ast.Note, error) {
	p.advance()

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	description, err := p.parseString()
	if err != nil {
		return nil, err
	}

	note := &ast.Note{
		Pos:         pos,
		Date:        date,
		Account:     account,
		Description: description,
	}
	note.Metadata = p.parseMetadata(pos.Line)

	return note, nil
}

// parseDocument parses: DATE document ACCOUNT STRING
func (p *Parser) parseDocument(pos ast.Position, date *ast.Date) (*ast.Document, error) {
	p.advance()

	account, err := p.parseAccount()
	if err != nil {
		return nil, err
	}

	path, err := p.parseString()
	if err != nil {
		return nil, err
	}

	doc := &ast.Document{
		Pos:            pos,
		Date:           date,
		Account:        account,
		PathToDocument: path,
	}
	doc.Metadata = p.parseMetadata(pos.Line)

	return doc, nil
}

// parsePrice parses: DATE price CURRENCY AMOUNT
func (p *Parser) parsePrice(pos ast.Position, date *ast.Date) (*ast.Price, error) {
	p.advance()

	commodity, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	amount, err := p.parseAmount()
	if err != nil {
		return nil, err
	}

	price := &ast.Price{
		Pos:       pos,
		Date:      date,
		Commodity: commodity,
		Amount:    amount,
	}
	price.Metadata = p.parseMetadata(pos.Line)

	return price, nil
}

// parseEvent parses: DATE event STRING STRING
func (p *Parser) parseEvent(pos ast.Position, date *ast.Date) (*ast.Event, error) {
	p.advance()

	name, err := p.parseString()
	if err != nil {
		return nil, err
	}

	value, err := p.parseString()
	if err != nil {
		return nil, err
	}

	event := &ast.Event{
		Pos:   pos,
		Date:  date,
		Name:  name,
		Value: value,
	}
	event.Metadata = p.parseMetadata(pos.Line)

	return event, nil
}

// parseCustom parses: DATE custom STRING VALUE*
// where VALUE is a string, date, boolean, account, number or amount.
func (p *Parser) parseCustom(pos ast.Position, date *ast.Date) (*ast.Custom, error) {
	p.advance()

	customType, err := p.parseString()
	if err != nil {
		return nil, err
	}

	custom := &ast.Custom{
		Pos:  pos,
		Date: date,
		Type: customType,
	}

	for !p.isAtEnd() && p.peek().Line == pos.Line {
		tok := p.peek()
		var val *ast.CustomValue

		switch tok.Type {
		case STRING:
			s, err := p.parseString()
			if err != nil {
				return nil, err
			}
			val = &ast.CustomValue{String: &s}

		case DATE:
			d, err := p.parseDate()
			if err != nil {
				return nil, err
			}
			val = &ast.CustomValue{Date: d}

		case ACCOUNT:
			account, err := p.parseAccount()
			if err != nil {
				return nil, err
			}
			val = &ast.CustomValue{Account: &account}

		case IDENT:
			ident := tok.String(p.source)
			if ident != "TRUE" && ident != "FALSE" {
				return nil, p.errorAtToken(tok, "unexpected identifier %q in custom directive", ident)
			}
			p.advance()
			b := ident == "TRUE"
			val = &ast.CustomValue{Boolean: &b}

		case NUMBER, MINUS, LPAREN:
			amount, err := p.parseAmountOptional()
			if err != nil {
				return nil, err
			}
			if amount.Currency == "" {
				val = &ast.CustomValue{Number: &amount.Value}
			} else {
				val = &ast.CustomValue{Amount: amount}
			}

		default:
			return nil, p.errorAtToken(tok, "unexpected %s in custom directive", tok.Type)
		}

		custom.Values = append(custom.Values, val)
	}

	custom.Metadata = p.parseMetadata(pos.Line)

	return custom, nil
}

// parseOption parses: option STRING STRING
func (p *Parser) parseOption() (*ast.Option, error) {
	pos := p.position(p.advance())

	name, err := p.parseString()
	if err != nil {
		return nil, err
	}

	value, err := p.parseString()
	if err != nil {
		return nil, err
	}

	return &ast.Option{Pos: pos, Name: name, Value: value}, nil
}

// parseInclude parses: include STRING
func (p *Parser) parseInclude() (*ast.Include, error) {
	pos := p.position(p.advance())

	filename, err := p.parseString()
	if err != nil {
		return nil, err
	}

	return &ast.Include{Pos: pos, Filename: filename}, nil
}

// parsePlugin parses: plugin STRING [STRING]
func (p *Parser) parsePlugin() (*ast.Plugin, error) {
	tok := p.advance()
	pos := p.position(tok)

	name, err := p.parseString()
	if err != nil {
		return nil, err
	}

	plugin := &ast.Plugin{Pos: pos, Name: name}
	if p.check(STRING) && p.peek().Line == tok.Line {
		config, err := p.parseString()
		if err != nil {
			return nil, err
		}
		plugin.Config = config
	}

	return plugin, nil
}

// parsePushmeta parses: pushmeta KEY: VALUE
func (p *Parser) parsePushmeta() (*ast.Pushmeta, error) {
	tok := p.advance()

	keyTok := p.peek()
	if keyTok.Type != IDENT && !keyTok.Type.IsKeyword() {
		return nil, p.errorAtToken(keyTok, "expected metadata key after pushmeta")
	}
	p.advance()

	colon := p.consume(COLON, "expected ':'")
	if colon.Type == ILLEGAL {
		return nil, p.error("expected ':' after pushmeta key")
	}

	meta := p.parseMetadataValue(keyTok, colon)
	return &ast.Pushmeta{
		Pos:    p.position(tok),
		Key:    meta.Key,
		Value:  meta.Value,
		Quoted: meta.Quoted,
	}, nil
}
