package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
)

type proxyHandler func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// lambdaHandler adapts the router to API Gateway proxy events.
func (app *application) lambdaHandler() proxyHandler {
	return chiadapter.New(app.setupRouter()).ProxyWithContext
}
