package dispatcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/grubgather/grubgather/agent/contract"
)

type GraphInput struct {
	User string
	Text string
}

type GraphOutput struct {
	Reply  string
	Parsed contractx.Intent
}

type graphState struct {
	User   string
	Text   string
	Intent contractx.Intent

	// Note carries a restaurant-resolution message to prepend to the reply.
	Note  string
	Reply string
}

func (d *Dispatcher) compileHandleMessageGraph(
	ctx context.Context,
) (compose.Runnable[GraphInput, GraphOutput], error) {
	graph := compose.NewGraph[GraphInput, GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in GraphInput) (*graphState, error) {
			text := strings.TrimSpace(in.Text)
			if text == "" {
				return nil, ErrInvalidMessage
			}
			user := strings.TrimSpace(in.User)
			if user == "" {
				user = "Anonymous"
			}
			return &graphState{User: user, Text: text}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	// Classification happens exactly once per inbound message; every route
	// below works off the structured intent only.
	if err := graph.AddLambdaNode("classify_intent",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			in.Intent = d.classifier.Classify(ctx, in.Text)
			in.Note = d.resolveRestaurant(ctx, in.Intent)
			return in, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_intent: %w", err)
	}

	if err := graph.AddLambdaNode("order_path",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			in.Reply = d.routeOrder(in.User, in.Intent)
			return in, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node order_path: %w", err)
	}

	if err := graph.AddLambdaNode("query_path",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			in.Reply = d.routeQuery()
			return in, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node query_path: %w", err)
	}

	if err := graph.AddLambdaNode("place_order_path",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			in.Reply = d.routePlaceOrder(in.User)
			return in, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node place_order_path: %w", err)
	}

	if err := graph.AddLambdaNode("unknown_path",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			// A resolved restaurant is a useful outcome even when the rest
			// of the message was not understood.
			if in.Note == "" {
				in.Reply = replyHelp
			}
			return in, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node unknown_path: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (GraphOutput, error) {
			reply := in.Reply
			if in.Note != "" {
				if reply == "" {
					reply = in.Note
				} else {
					reply = in.Note + "\n" + reply
				}
			}
			if strings.TrimSpace(reply) == "" {
				reply = replyHelp
			}
			return GraphOutput{Reply: reply, Parsed: in.Intent}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *graphState) (string, error) {
			switch in.Intent.Type {
			case contractx.IntentOrder:
				return "order_path", nil
			case contractx.IntentQuery:
				return "query_path", nil
			case contractx.IntentPlaceOrder:
				return "place_order_path", nil
			default:
				return "unknown_path", nil
			}
		},
		map[string]bool{
			"order_path":       true,
			"query_path":       true,
			"place_order_path": true,
			"unknown_path":     true,
		},
	)

	if err := graph.AddEdge(compose.START, "validate_request"); err != nil {
		return nil, fmt.Errorf("add edge start->validate_request: %w", err)
	}
	if err := graph.AddEdge("validate_request", "classify_intent"); err != nil {
		return nil, fmt.Errorf("add edge validate_request->classify_intent: %w", err)
	}
	if err := graph.AddBranch("classify_intent", branch); err != nil {
		return nil, fmt.Errorf("add intent branch: %w", err)
	}
	for _, path := range []string{"order_path", "query_path", "place_order_path", "unknown_path"} {
		if err := graph.AddEdge(path, "finalize_reply"); err != nil {
			return nil, fmt.Errorf("add edge %s->finalize_reply: %w", path, err)
		}
	}
	if err := graph.AddEdge("finalize_reply", compose.END); err != nil {
		return nil, fmt.Errorf("add edge finalize_reply->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("dispatcher.handle_message"))
	if err != nil {
		return nil, fmt.Errorf("compile dispatcher graph: %w", err)
	}
	return runner, nil
}
