// Package scenario loads inference scenarios: declarations of classes and
// generic methods plus invocations to infer, with the expected outcome of each.
package scenario

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Scenario struct {
	Classes     []Class      `yaml:"classes"`
	Methods     []Method     `yaml:"methods"`
	Invocations []Invocation `yaml:"invocations"`
}

type TypeParam struct {
	Name   string   `yaml:"name"`
	Bounds []string `yaml:"bounds"`
}

type Class struct {
	Name       string      `yaml:"name"`
	TypeParams []TypeParam `yaml:"typeParams"`
	Superclass string      `yaml:"superclass"`
	Interfaces []string    `yaml:"interfaces"`
	Final      bool        `yaml:"final"`
	Interface  bool        `yaml:"interface"`
	// SAM is the single abstract method of a functional interface
	SAM *Method `yaml:"sam"`
}

type Method struct {
	Name       string      `yaml:"name"`
	TypeParams []TypeParam `yaml:"typeParams"`
	Params     []string    `yaml:"params"`
	Returns    string      `yaml:"returns"`
	Throws     []string    `yaml:"throws"`
	Varargs    bool        `yaml:"varargs"`
}

// Argument is one of the argument expression kinds; exactly one field is set
type Argument struct {
	Type        string       `yaml:"type"`
	Lambda      *Lambda      `yaml:"lambda"`
	Call        *Call        `yaml:"call"`
	Conditional *Conditional `yaml:"conditional"`
	Ref         *Ref         `yaml:"ref"`
}

type Lambda struct {
	// Params are the declared types of an explicitly typed lambda
	Params []string `yaml:"params"`
	// Arity is the parameter count of an implicitly typed lambda
	Arity   int        `yaml:"arity"`
	Returns []Argument `yaml:"returns"`
	Throws  []string   `yaml:"throws"`
}

type Call struct {
	Method   string     `yaml:"method"`
	TypeArgs []string   `yaml:"typeArgs"`
	Args     []Argument `yaml:"args"`
}

type Conditional struct {
	Then Argument `yaml:"then"`
	Else Argument `yaml:"else"`
}

type Ref struct {
	Method string `yaml:"method"`
	// Class declaring Method, when it is not a free-standing method
	Class    string `yaml:"class"`
	Receiver string `yaml:"receiver"`
	Unbound  bool   `yaml:"unbound"`
	Exact    bool   `yaml:"exact"`
}

type Invocation struct {
	Name     string     `yaml:"name"`
	Method   string     `yaml:"method"`
	TypeArgs []string   `yaml:"typeArgs"`
	Args     []Argument `yaml:"args"`
	Target   string     `yaml:"target"`
	Expect   Expect     `yaml:"expect"`
}

type Expect struct {
	TypeArgs []string `yaml:"typeArgs"`
	Returns  string   `yaml:"returns"`
	Fails    bool     `yaml:"fails"`
}

// Load decodes a scenario, rejecting unknown fields
func Load(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	s := &Scenario{}
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("could not decode scenario: %w", err)
	}
	return s, nil
}

func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open scenario: %w", err)
	}
	defer f.Close()
	return Load(f)
}
