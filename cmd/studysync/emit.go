package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ayia-hosni/study-sync-backend/internal/client"
	"github.com/ayia-hosni/study-sync-backend/internal/config"
	"github.com/ayia-hosni/study-sync-backend/internal/deadletter"
	"github.com/ayia-hosni/study-sync-backend/internal/dispatch"
	"github.com/spf13/cobra"
)

var emitDirect bool

var emitCmd = &cobra.Command{
	Use:   "emit <kind> [json|-]",
	Short: "Raise an occurrence",
	Long: `Raise an occurrence such as post.liked. The body is a JSON object given
as the second argument, or read from stdin when it is "-" or omitted.

By default the occurrence is sent to the server's HTTP ingress and queued.
With --direct it is decoded locally and published straight to Kafka using
the STUDYSYNC_* configuration.`,
	Example: `  studysync emit post.liked '{"userId":1,"postId":42,"category":"math"}'
  echo '{"postId":42,"authorId":7}' | studysync emit post.deleted`,
	GroupID: "events",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := dispatch.Kind(args[0])
		body, err := readPayload(args[1:], cmd.InOrStdin())
		if err != nil {
			return err
		}

		if emitDirect {
			return emitDirectly(cmd.Context(), kind, body)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		c := client.NewHTTPClient(httpURL, clientOptions())
		defer c.Close()
		if err := c.Emit(ctx, string(kind), body); err != nil {
			return fmt.Errorf("emitting %s: %w", kind, err)
		}
		printAccepted(kind)
		return nil
	},
}

// readPayload returns the JSON body from args[0], or from r when args is
// empty or "-".
func readPayload(args []string, r io.Reader) ([]byte, error) {
	var body []byte
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		body = data
	} else {
		body = []byte(args[0])
	}
	if !json.Valid(body) {
		return nil, errors.New("body is not valid JSON")
	}
	return body, nil
}

// emitDirectly decodes the occurrence and publishes it synchronously,
// without the server or the job queue.
func emitDirectly(ctx context.Context, kind dispatch.Kind, body []byte) error {
	occ, err := dispatch.Decode(kind, body)
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	publisher, err := newPublisher(cfg, logger, deadletter.LogSink{Logger: logger}, nil)
	if err != nil {
		return err
	}
	defer publisher.Close()

	if !dispatch.Publish(ctx, publisher, occ) {
		return fmt.Errorf("%s: event not delivered", kind)
	}
	printAccepted(kind)
	return nil
}

var kindsCmd = &cobra.Command{
	Use:     "kinds",
	Short:   "List occurrence kinds accepted by emit",
	GroupID: "events",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		kinds := dispatch.Kinds()
		if jsonOutput {
			printJSON(kinds)
			return
		}
		for _, k := range kinds {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
	},
}

func init() {
	emitCmd.Flags().BoolVar(&emitDirect, "direct", false, "publish to Kafka from this process instead of the server")
}
