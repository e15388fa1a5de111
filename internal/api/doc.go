// Package api is the HTTP client for the comment server.
//
// The client is built on go-retryablehttp over a cleanhttp pooled
// transport. It never attaches cookies or credentials. Conf fetches the
// server configuration:
//
//	client, err := api.New("https://comments.example.com", api.WithLogger(logger))
//	data, err := client.Conf(ctx)
//	// data.FrontendConf, data.Plugins, data.Version
//
// Response decoding is lenient where the wire format is loose: a
// frontend_conf that is not an object decodes to nil, and a plugins value
// that is not an array decodes to an empty list.
package api
