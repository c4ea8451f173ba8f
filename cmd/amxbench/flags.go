package main

import (
	"strconv"

	"github.com/spf13/pflag"
)

// lenientInt is an int flag that falls back to its default on input that
// does not parse.
type lenientInt struct {
	v   *int
	def int
}

func (l *lenientInt) String() string { return strconv.Itoa(*l.v) }
func (l *lenientInt) Type() string   { return "int" }

func (l *lenientInt) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		n = l.def
	}
	*l.v = n
	return nil
}

// lenientUint64 is the uint64 counterpart of lenientInt.
type lenientUint64 struct {
	v   *uint64
	def uint64
}

func (l *lenientUint64) String() string { return strconv.FormatUint(*l.v, 10) }
func (l *lenientUint64) Type() string   { return "uint64" }

func (l *lenientUint64) Set(s string) error {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		n = l.def
	}
	*l.v = n
	return nil
}

func intVar(f *pflag.FlagSet, p *int, name string, value int, usage string) {
	*p = value
	f.Var(&lenientInt{v: p, def: value}, name, usage)
}

func uint64Var(f *pflag.FlagSet, p *uint64, name string, value uint64, usage string) {
	*p = value
	f.Var(&lenientUint64{v: p, def: value}, name, usage)
}
