// Package flagx holds the small command-line helpers shared by the client
// and server binaries.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns only the allowed flags from args, together with their
// values.
//
// Two forms are recognised:
//
//	-c conf.json       value as the next argument
//	--config=conf.json value joined with '='
//
// A following argument that starts with '-' is never taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigPath extracts the JSON config file path given by -c or -config.
// Every other argument is ignored so the caller can run its own FlagSet over
// the full argument list afterwards. An empty string means no file.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--c", "--config"}))

	return path
}

// RegisterConfigFlags declares -c and -config on fs so that a strict parse of
// the full argument list accepts them. Their values are read by ConfigPath.
func RegisterConfigFlags(fs *flag.FlagSet) {
	var ignored string
	fs.StringVar(&ignored, "config", "", "Path to JSON config file")
	fs.StringVar(&ignored, "c", "", "Path to JSON config file (short)")
}
