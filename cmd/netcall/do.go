package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/brizzai/netcall/internal/decoder"
	"github.com/brizzai/netcall/internal/neterror"
	"github.com/brizzai/netcall/internal/params"
	"github.com/brizzai/netcall/internal/parser"
	"github.com/brizzai/netcall/internal/request"
	"github.com/brizzai/netcall/internal/requester"
	"github.com/brizzai/netcall/internal/utils"
)

type doOptions struct {
	openAPI   string
	operation string
	baseURL   string
	selection string
	params    []string
	schema    string
	validate  bool
	query     string
	quiet     bool
}

func newDoCmd() *cobra.Command {
	opts := &doOptions{}
	cmd := &cobra.Command{
		Use:   "do [descriptor.yaml]",
		Short: "Send one request and print the response body",
		Example: `  netcall do get-user.yaml --param id=42
  netcall do --openapi petstore.yaml --operation getPet --param petId=1 --query name`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDo(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.openAPI, "openapi", "", "OpenAPI/Swagger document describing the operation")
	cmd.Flags().StringVar(&opts.operation, "operation", "", "Operation id to call, with --openapi")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Base URL overriding the document's first server")
	cmd.Flags().StringVar(&opts.selection, "select", "", "YAML file narrowing the callable operations")
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "Request parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.schema, "schema", "", "JSON Schema file the response body must satisfy")
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "Validate the body against the operation's response schema")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "GJSON path extracted from the response body")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "Do not print the status summary")
	return cmd
}

func runDo(cmd *cobra.Command, opts *doOptions, args []string) error {
	if (len(args) == 0) == (opts.openAPI == "") {
		return errors.New("pass either a descriptor file or --openapi with --operation")
	}

	var executor *requester.Executor
	var swagger *parser.SwaggerParser
	if err := newApp(cmd, &executor, &swagger); err != nil {
		return err
	}

	d, err := buildDescriptor(swagger, opts, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	started := time.Now()
	resp, err := executor.Do(ctx, d)
	elapsed := time.Since(started)

	var statusErr *neterror.StatusCodeError
	if errors.As(err, &statusErr) {
		summarize(cmd, opts, statusErr.Code, statusErr.Body, elapsed)
		if writeErr := utils.WriteBody(cmd.ErrOrStderr(), statusErr.Body); writeErr != nil {
			return errors.Join(err, writeErr)
		}
		return err
	}
	if err != nil {
		return err
	}
	summarize(cmd, opts, resp.StatusCode, resp.Body, elapsed)

	body, err := decodeBody(resp.Body, d.Decoder())
	if err != nil {
		return err
	}
	return printBody(cmd.OutOrStdout(), body, opts.query)
}

// buildDescriptor loads the descriptor file or builds one from the OpenAPI
// operation, applying --param values and the schema decoder
func buildDescriptor(swagger *parser.SwaggerParser, opts *doOptions, args []string) (request.Descriptor, error) {
	var extra []request.Option
	if opts.schema != "" {
		schema, err := decoder.NewSchemaFile(opts.schema)
		if err != nil {
			return nil, err
		}
		extra = append(extra, request.WithDecoder(schema))
	}

	if len(args) == 1 {
		if opts.validate {
			return nil, errors.New("--validate needs --openapi")
		}
		values, err := parseParams(opts.params, func(_, raw string) params.Value { return literalValue(raw) })
		if err != nil {
			return nil, err
		}
		values.Range(func(key string, v params.Value) bool {
			extra = append(extra, request.WithParam(key, v))
			return true
		})
		return request.LoadFile(args[0], extra...)
	}

	if opts.operation == "" {
		return nil, errors.New("--operation is required with --openapi")
	}
	if err := swagger.Init(opts.openAPI, opts.selection); err != nil {
		return nil, err
	}

	values, err := parseParams(opts.params, func(key, raw string) params.Value {
		return swagger.Coerce(opts.operation, key, raw)
	})
	if err != nil {
		return nil, err
	}

	if opts.validate && opts.schema == "" {
		doc, err := swagger.ResponseSchema(opts.operation)
		if err != nil {
			return nil, err
		}
		schema, err := decoder.NewSchema(doc)
		if err != nil {
			return nil, err
		}
		extra = append(extra, request.WithDecoder(schema))
	}

	return swagger.Endpoint(opts.operation, opts.baseURL, values, extra...)
}

// parseParams splits key=value pairs in order, typing values with convert
func parseParams(pairs []string, convert func(key, raw string) params.Value) (*params.Map, error) {
	values := params.NewMap()
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		values.Set(key, convert(key, raw))
	}
	return values, nil
}

// literalValue reads raw as a JSON literal so numbers, booleans, objects and
// arrays keep their type. Anything else, null included, is a string.
func literalValue(raw string) params.Value {
	var v params.Value
	if err := json.Unmarshal([]byte(raw), &v); err == nil && v.Valid() {
		return v
	}
	return params.String(raw)
}

// decodeBody runs the descriptor's strategy over the body. Strict JSON
// decoding needs a Go type, so without a schema the body passes through.
func decodeBody(body []byte, strategy decoder.Strategy) ([]byte, error) {
	switch strategy.(type) {
	case nil, decoder.JSON, *decoder.JSON, decoder.Bytes, *decoder.Bytes:
		return decoder.Decode[[]byte](body, decoder.Bytes{})
	default:
		return decoder.Decode[json.RawMessage](body, strategy)
	}
}

func printBody(w io.Writer, body []byte, query string) error {
	if query != "" {
		result := gjson.GetBytes(body, query)
		if !result.Exists() {
			return fmt.Errorf("query %q matched nothing", query)
		}
		if result.IsObject() || result.IsArray() {
			return utils.WriteJSON(w, []byte(result.Raw), utils.IsTerminal(w))
		}
		return utils.WriteBody(w, []byte(result.String()))
	}
	return utils.WriteJSON(w, body, utils.IsTerminal(w))
}

func summarize(cmd *cobra.Command, opts *doOptions, status int, body []byte, elapsed time.Duration) {
	if opts.quiet {
		return
	}
	printer := pterm.Success
	if status < 200 || status > 299 {
		printer = pterm.Warning
	}
	printer.WithWriter(cmd.ErrOrStderr()).Printfln("%d %s  %s  %s",
		status,
		http.StatusText(status),
		bytefmt.ByteSize(uint64(len(body))),
		elapsed.Round(time.Millisecond),
	)
}
