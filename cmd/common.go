package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/rglonek/logger"
	"github.com/spf13/cobra"

	awsclient "tasnim.dev/nat-convert/internal/aws"
	"tasnim.dev/nat-convert/internal/config"
	"tasnim.dev/nat-convert/internal/theme"
	"tasnim.dev/nat-convert/internal/utils"
)

// sessionFlags are shared by every command that talks to AWS.
type sessionFlags struct {
	profile  string
	region   string
	logLevel string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "AWS profile to use")
	cmd.Flags().StringVarP(&f.region, "region", "r", "", "AWS region to use")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level: critical, error, warning, info, debug, detail")
}

type session struct {
	cfg     *config.Config
	log     *logger.Logger
	client  *awsclient.ServiceClient
	gateway *awsclient.Gateway
	profile string
}

// banner names the account, region and profile a command is about to act on.
func banner(w io.Writer, accountID, region, profile string) {
	line := fmt.Sprintf("Account %s in %s", utils.DashIfEmpty(accountID), region)
	if profile != "" {
		line += " " + theme.ProfileStyle.Render("(profile "+profile+")")
	}
	fmt.Fprintln(w, theme.HeaderStyle.Render(line))
}

func (s *session) banner(w io.Writer) {
	banner(w, s.client.AccountID, s.client.Region, s.profile)
}

func newLogger(level logger.LogLevel) *logger.Logger {
	log := logger.NewLogger()
	log.SetLogLevel(level)
	return log
}

func newSession(ctx context.Context, f *sessionFlags) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	level, err := cfg.LogLevel(f.logLevel)
	if err != nil {
		return nil, err
	}
	log := newLogger(level)

	profile, region := cfg.Merge(f.profile, f.region)
	client, err := awsclient.NewServiceClient(ctx, profile, region)
	if err != nil {
		return nil, fmt.Errorf("initializing AWS client: %w", err)
	}
	log.Debug("profile=%q region=%s account=%s", profile, client.Region, client.AccountID)

	return &session{
		cfg:     cfg,
		log:     log,
		client:  client,
		gateway: awsclient.NewGatewayFromClient(client, log, cfg.GatewayPrefix()),
		profile: profile,
	}, nil
}
