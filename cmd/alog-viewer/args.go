package main

import (
	"regexp"
	"strings"
)

var negativeNumber = regexp.MustCompile(`^-\d+$`)

// launchArgs moves the positional arguments behind "--" when one of them
// is a negative number. Cobra would otherwise read "-1" as a shorthand
// flag and fail before the port is parsed and replaced by the default.
func launchArgs(args []string) []string {
	var flags, positional []string
	moved := false
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			positional = append(positional, args[i+1:]...)
			i = len(args)
		case negativeNumber.MatchString(a):
			positional = append(positional, a)
			moved = true
		case strings.HasPrefix(a, "-") && len(a) > 1:
			flags = append(flags, a)
			if takesValue(a) && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		default:
			positional = append(positional, a)
		}
	}
	if !moved {
		return args
	}
	out := append(flags, "--")
	return append(out, positional...)
}

// takesValue reports whether a flag given without "=value" consumes the
// next argument.
func takesValue(arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}
	name := strings.TrimLeft(arg, "-")
	f := rootCmd.Flags().Lookup(name)
	if f == nil && len(name) == 1 {
		f = rootCmd.Flags().ShorthandLookup(name)
	}
	return f != nil && f.NoOptDefVal == ""
}
