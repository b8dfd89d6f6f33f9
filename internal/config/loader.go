package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-ini/ini"
)

// Loader can be used for loading .ziprand configuration as well as overridden with default settings.
type Loader struct {
	// Profile is the AWS profile to use, taking precedence over bucket-based aws-profile settings.
	Profile string

	cfg           *ini.File
	awsOptFns     []func(*config.LoadOptions) error
	s3clientCache sync.Map
}

// Load will traverse the directory hierarchy upwards to find the first ".ziprand" file available and load its
// contents into the Loader.
//
// The name of the .ziprand file is returned. An empty name with a nil error means no file was found, which leaves the
// Loader with empty settings.
func (l *Loader) Load(ctx context.Context) (string, error) {
	if l.cfg == nil {
		l.cfg = ini.Empty()
	}

	cur, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		path := filepath.Join(cur, ".ziprand")
		switch fi, err := os.Stat(path); {
		case err == nil && !fi.IsDir():
			if l.cfg, err = ini.Load(path); err != nil {
				l.cfg = ini.Empty()
				return path, err
			}

			return path, nil
		case err != nil && !os.IsNotExist(err):
			return "", err
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", nil
		}

		cur = parent
	}
}

// LoadProfile is a convenient method to set Loader.Profile then call Load.
func (l *Loader) LoadProfile(ctx context.Context, profile string) (string, error) {
	l.Profile = profile
	return l.Load(ctx)
}

// AddAWSOption registers an option that every subsequent LoadAWSConfig call will apply.
func (l *Loader) AddAWSOption(optFn func(*config.LoadOptions) error) {
	l.awsOptFns = append(l.awsOptFns, optFn)
}

// LoadAWSConfig calls config.LoadDefaultConfig with the registered options applied first.
func (l *Loader) LoadAWSConfig(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, append(l.awsOptFns, optFns...)...)
}

// DefaultLoader is the default Loader instance for package-level methods.
var DefaultLoader = &Loader{cfg: ini.Empty()}

// Load calls Loader.Load on the DefaultLoader instance.
func Load(ctx context.Context) (string, error) {
	return DefaultLoader.Load(ctx)
}

// LoadProfile calls Loader.LoadProfile on the DefaultLoader instance.
func LoadProfile(ctx context.Context, profile string) (string, error) {
	return DefaultLoader.LoadProfile(ctx, profile)
}
