package main

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/brizzai/netcall/internal/parser"
)

func newOperationsCmd() *cobra.Command {
	var openAPI, selection string
	cmd := &cobra.Command{
		Use:   "operations",
		Short: "List the operations of an OpenAPI document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if openAPI == "" {
				return errors.New("--openapi is required")
			}

			var p parser.Parser
			if err := newApp(cmd, &p); err != nil {
				return err
			}
			if err := p.Init(openAPI, selection); err != nil {
				return err
			}

			data := pterm.TableData{{"OPERATION", "METHOD", "PATH", "BODY", "DESCRIPTION"}}
			for _, op := range p.Operations() {
				body := "-"
				if op.Method.CarriesBody() {
					body = contentTypeName(op)
				}
				data = append(data, []string{op.ID, string(op.Method), op.Path, body, op.Description})
			}
			return pterm.DefaultTable.
				WithHasHeader().
				WithWriter(cmd.OutOrStdout()).
				WithData(data).
				Render()
		},
	}

	cmd.Flags().StringVar(&openAPI, "openapi", "", "OpenAPI/Swagger document")
	cmd.Flags().StringVar(&selection, "select", "", "YAML file narrowing the listed operations")
	return cmd
}

func contentTypeName(op *parser.Operation) string {
	switch {
	case op.ContentType.IsFormData():
		return "multipart"
	case op.ContentType.IsFormURLEncoded():
		return "form"
	default:
		return "json"
	}
}
