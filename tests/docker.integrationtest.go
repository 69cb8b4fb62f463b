//go:build integration

// Package tests starts the infrastructure integration tests depend on.
package tests

import (
	"errors"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

var ErrDockerFailure = errors.New("docker failure")

// RetryFunc is the function you use to connect to the docker container.
// The returned func is called by dockertest.Pool until it succeeds,
// while the container is still starting up.
type RetryFunc func(resource *dockertest.Resource) func() error

// StartDockerContainer connects to the local docker service and starts a container for integration testing.
// The returned func stops and removes the container again.
func StartDockerContainer(runOptions *dockertest.RunOptions, retryFunc RetryFunc) (func() error, error) {
	if runOptions == nil {
		return nil, fmt.Errorf("%w: invalid run options", ErrDockerFailure)
	}

	if retryFunc == nil {
		return nil, fmt.Errorf("%w: invalid retry func", ErrDockerFailure)
	}

	pool, err := dockertest.NewPool("") // uses a sensible default on windows (tcp/http) and linux/osx (socket)
	if err != nil {
		return nil, fmt.Errorf("%w: could not create new pool: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	if err = pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("%w: could not connect to docker: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	resource, err := pool.RunWithOptions(
		runOptions,
		func(config *docker.HostConfig) {
			config.AutoRemove = true // stopped container goes away by itself
			config.RestartPolicy = docker.RestartPolicy{Name: "no", MaximumRetryCount: 0}
		})
	if err != nil {
		return nil, fmt.Errorf("%w: could not start resource: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	const dockerTimeout = 120
	_ = resource.Expire(dockerTimeout) // hard kill the container, if a test run hangs

	pool.MaxWait = dockerTimeout * time.Second
	if err := pool.Retry(retryFunc(resource)); err != nil {
		return nil, fmt.Errorf("%w: could not connect to container: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	return func() error {
		if err := pool.Purge(resource); err != nil {
			return fmt.Errorf("%w: could not purge resource: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
		}

		return nil
	}, nil
}
