package ast

// Option sets a ledger-wide configuration value.
//
//	option "title" "Personal Ledger"
//	option "forecast_horizon" "2030-12-31"
type Option struct {
	Pos   Position
	Name  string
	Value string
}

func (o *Option) Position() Position { return o.Pos }

// Include pulls the directives of another file into this one. Relative paths
// resolve against the including file's directory.
type Include struct {
	Pos      Position
	Filename string
}

func (i *Include) Position() Position { return i.Pos }

// Plugin declares a processing plugin with optional configuration.
//
//	plugin "beancount.plugins.forecast"
//	plugin "beancount.plugins.auto_accounts"
type Plugin struct {
	Pos    Position
	Name   string
	Config string
}

func (p *Plugin) Position() Position { return p.Pos }

// Pushtag adds a tag to every following transaction until the matching poptag.
type Pushtag struct {
	Pos Position
	Tag Tag
}

func (p *Pushtag) Position() Position { return p.Pos }

// Poptag ends a pushtag.
type Poptag struct {
	Pos Position
	Tag Tag
}

func (p *Poptag) Position() Position { return p.Pos }

// Pushmeta adds a metadata entry to every following directive until the matching popmeta.
type Pushmeta struct {
	Pos    Position
	Key    string
	Value  string
	Quoted bool
}

func (p *Pushmeta) Position() Position { return p.Pos }

// Popmeta ends a pushmeta.
type Popmeta struct {
	Pos Position
	Key string
}

func (p *Popmeta) Position() Position { return p.Pos }
