package cli

import (
	"fmt"
	"net/http"

	"github.com/ehabterra/apidocs/internal/spec"
	"github.com/fatih/color"
	"github.com/projectdiscovery/gologger"
)

var methodColors = map[string]*color.Color{
	http.MethodGet:     color.New(color.FgBlue, color.Bold),
	http.MethodPost:    color.New(color.FgGreen, color.Bold),
	http.MethodPut:     color.New(color.FgYellow, color.Bold),
	http.MethodDelete:  color.New(color.FgRed, color.Bold),
	http.MethodPatch:   color.New(color.FgCyan, color.Bold),
	http.MethodOptions: color.New(color.FgHiBlue, color.Bold),
	http.MethodHead:    color.New(color.FgMagenta, color.Bold),
}

// methodLabel pads method to a fixed width and colors it by verb.
func methodLabel(method string) string {
	label := fmt.Sprintf("%-7s", method)
	if c, ok := methodColors[method]; ok {
		return c.Sprint(label)
	}
	return label
}

func printSummary(parsed *spec.ParsedSpec) {
	gologger.Info().Str("dialect", parsed.Dialect.String()).Msgf("%s %s", parsed.Info.Title, parsed.Info.Version)
	for _, server := range parsed.Servers {
		gologger.Info().Msgf("Server: %s", server.URL)
	}

	groups := spec.GroupByTag(parsed.Endpoints)
	for _, group := range groups.Groups() {
		gologger.Silent().Msgf("%s (%d)", color.New(color.Bold).Sprint(group.Name), len(group.Endpoints))
		for _, ep := range group.Endpoints {
			gologger.Silent().Msgf("  %s %s  %s  [%s]", methodLabel(ep.Method), ep.Path, ep.Summary, ep.ID)
		}
	}
	gologger.Info().Msgf("%d endpoints in %d groups", len(parsed.Endpoints), groups.Len())
}
