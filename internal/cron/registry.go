package cron

import (
	"context"
	"fmt"
	"slices"
)

// Job is one unit of periodic work. Name doubles as the metrics label and
// must be stable across deploys.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs in run order.
type Registry struct {
	jobs []Job
}

// NewRegistry panics on a nil or duplicate job; registration happens at
// process start where that is a wiring bug.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("cron: nil job")
	}
	name := job.Name()
	if name == "" {
		return fmt.Errorf("cron: job %T has no name", job)
	}
	if slices.Contains(r.Names(), name) {
		return fmt.Errorf("cron: job %q registered twice", name)
	}
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *Registry) Jobs() []Job {
	return slices.Clone(r.jobs)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name())
	}
	return names
}
