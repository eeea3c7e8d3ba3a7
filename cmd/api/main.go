// Package main is the task API. Inside AWS Lambda it serves API Gateway
// proxy events; anywhere else it runs as a plain HTTP server, which is how
// it is developed locally.
package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	ctx := context.Background()
	inLambda := runningInLambda()

	app, err := initializeApp(ctx, inLambda)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if inLambda {
		lambda.Start(app.lambdaHandler())
		return
	}

	if err := app.Run(ctx); err != nil {
		app.logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// runningInLambda reports whether the process was started by the Lambda runtime.
func runningInLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}
