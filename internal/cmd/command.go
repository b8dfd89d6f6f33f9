package cmd

import (
	"context"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/jessevdk/go-flags"
	"github.com/rhythmcache/libziprand/internal/config"
)

type options struct {
	Profile string `short:"p" long:"profile" description:"override the AWS profile for all S3 operations"`
	Region  string `long:"region" description:"override the AWS region for all S3 operations"`

	List    List    `command:"list" alias:"ls" description:"list the entries of archives without downloading them"`
	Cat     Cat     `command:"cat" description:"write stored entries to standard output"`
	Extract Extract `command:"extract" alias:"x" description:"extract stored entries into a new directory"`
	Fetch   Fetch   `command:"fetch" description:"download whole archives from S3"`
}

// NewParser creates the go-flags parser with all commands registered.
//
// Before a command executes, the nearest .ziprand configuration file is loaded and the global profile and region
// overrides are applied to it.
func NewParser() (*flags.Parser, error) {
	opts := &options{}

	p := flags.NewNamedParser("ziprand", flags.Default)
	if _, err := p.AddGroup("Global Options", "", opts); err != nil {
		return nil, err
	}

	p.CommandHandler = func(command flags.Commander, args []string) error {
		config.DefaultLoader.Profile = opts.Profile
		if opts.Region != "" {
			config.DefaultLoader.AddAWSOption(func(o *awsconfig.LoadOptions) error {
				o.Region = opts.Region
				return nil
			})
		}

		if path, err := config.Load(context.Background()); err != nil {
			log.Printf(`ignoring unreadable config file "%s": %v`, path, err)
		}

		return command.Execute(args)
	}

	return p, nil
}
