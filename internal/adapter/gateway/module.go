package gateway

import "go.uber.org/fx"

// Module exposes the hosted gateway launcher to fx graph.
var Module = fx.Provide(NewHosted)
