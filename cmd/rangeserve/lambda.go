package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/rangeserve/config"
	"github.com/sagarc03/rangeserve/lambda"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Serve API Gateway HTTP events inside AWS Lambda",
	Long: `Run as an AWS Lambda function behind an API Gateway HTTP API.
Responses are buffered, so bodies larger than the payload limit fail
with 500; use ranged requests for large objects.`,
	RunE: runLambda,
}

func init() {
	lambdaCmd.Flags().Int64("max-body-bytes", lambda.DefaultMaxBodyBytes, "largest response body the function will buffer")
	rootCmd.AddCommand(lambdaCmd)
}

func runLambda(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	maxBody, _ := cmd.Flags().GetInt64("max-body-bytes")

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	lambda.NewAdapter(store, lambda.Config{
		Overrides:    cfg.Response.Overrides(),
		MaxBodyBytes: maxBody,
	}).Start()
	return nil
}
