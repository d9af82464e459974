package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/booldec/booldec/internal/pb"
	"github.com/booldec/booldec/internal/signals"
	"github.com/booldec/booldec/pkg/booldec"
	"github.com/booldec/booldec/pkg/mip"
)

type options struct {
	debug bool
}

// newRootCmd runs a small illustrative model: two decisions with
// objective coefficients 2 and 3, constrained so that they cannot
// both hold and the first must hold unless the second is false.
func newRootCmd() *cobra.Command {
	o := options{}

	cmd := &cobra.Command{
		Use:          "booldec",
		Short:        "Solves an example boolean decision problem",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.New()
			if o.debug {
				logger.SetLevel(logrus.DebugLevel)
			}
			return o.run(cmd.Context(), logger)
		},
	}

	cmd.Flags().BoolVar(&o.debug, "debug", false, "use debug log level")

	return cmd
}

func (o *options) run(ctx context.Context, logger *logrus.Logger) error {
	model := pb.New()
	p, err := booldec.New(booldec.WithName("example"), booldec.WithModel(model))
	if err != nil {
		return err
	}

	x, err := p.AddVar("x", 2.0)
	if err != nil {
		return err
	}
	y, err := p.AddVar("y", 3.0)
	if err != nil {
		return err
	}
	if err := p.AssertTrue(booldec.Not(booldec.And(x, y))); err != nil {
		return err
	}
	if err := p.AssertTrue(booldec.Or(x, booldec.Not(y))); err != nil {
		return err
	}

	status, err := p.Solve(ctx)
	if err != nil {
		return err
	}
	logger.Debugf("lowered model:\n%s", model)
	logger.Infof("status: %s", status)
	if status != mip.Optimal {
		return nil
	}

	sol, err := p.Solution()
	if err != nil {
		return err
	}
	for _, v := range sol {
		fmt.Println(v.Identifier())
	}
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(signals.Context()); err != nil {
		os.Exit(1)
	}
}
