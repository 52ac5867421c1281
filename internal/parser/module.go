package parser

import "go.uber.org/fx"

// Module provides the OpenAPI importer as both Parser and *SwaggerParser
var Module = fx.Module("parser",
	fx.Provide(
		fx.Annotate(
			NewSwaggerParser,
			fx.As(fx.Self()),
			fx.As(new(Parser)),
		),
		NewAdjuster,
	),
)
