// Package xpflag provides pflag.Value helpers for the CLI.
package xpflag

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// OneOf is a string flag restricted to a fixed set of values.
type OneOf struct {
	allowed []string
	value   string
}

func NewOneOf(def string, allowed ...string) *OneOf {
	if !slices.Contains(allowed, def) {
		allowed = append([]string{def}, allowed...)
	}
	return &OneOf{allowed: allowed, value: def}
}

// Set implements pflag.Value.
func (o *OneOf) Set(value string) error {
	if !slices.Contains(o.allowed, value) {
		return fmt.Errorf("unexpected value %q, expected one of [%s]", value, o.Variants())
	}
	o.value = value
	return nil
}

// String implements pflag.Value.
func (o *OneOf) String() string {
	return o.value
}

// Type implements pflag.Value.
func (o *OneOf) Type() string {
	return "string"
}

func (o *OneOf) Variants() string {
	return strings.Join(o.allowed, ", ")
}

// Complete plugs the allowed values into cobra shell completion:
//
//	format := xpflag.NewOneOf("text", "text", "json")
//	cmd.Flags().Var(format, "format", "output format, one of "+format.Variants())
//	cmd.RegisterFlagCompletionFunc("format", format.Complete)
func (o *OneOf) Complete(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return o.allowed, cobra.ShellCompDirectiveKeepOrder | cobra.ShellCompDirectiveNoFileComp
}

var _ pflag.Value = (*OneOf)(nil)
