package app

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/dshills/threadline/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// report writes the effective configuration and the loaded plugins.
func (app *Application) report() {
	conf := app.instance.Conf()

	var b strings.Builder
	fmt.Fprintf(&b, "instance %s\n", app.instance.ID())
	fmt.Fprintf(&b, "locale %s\n", config.Locale(conf))

	data, err := json.MarshalIndent(conf, "", "  ")
	if err != nil {
		app.logger.Error("failed to encode configuration", "error", err)
		return
	}
	b.WriteString("configuration:\n")
	b.Write(data)
	b.WriteString("\n")

	b.WriteString("plugins:\n")
	for _, p := range app.instance.Loaded() {
		if origin := p.Origin(); origin != "" {
			fmt.Fprintf(&b, "  %s (%s)\n", p.Name(), origin)
		} else {
			fmt.Fprintf(&b, "  %s\n", p.Name())
		}
	}

	fmt.Fprint(app.opts.Output, b.String())
}
