/*
Package observability binds dialogue lifecycle hooks to Prometheus metrics and
structured logs.

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	app := dialogue.New(script,
		dialogue.WithHooks(m.Hooks(script.Name)),
		dialogue.WithHooks(observability.LogHooks(logger)),
	)

The HTTP adapter exposes the registry on /metrics.
*/
package observability
