package stage

// Health reports whether a pipeline stage can accept the next item.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy marks a stage as fully operational.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Degraded marks a stage that still runs with reduced capability, such as
// the fetcher when ffmpeg is not installed.
func Degraded(name, detail string) Health {
	return Health{Name: name, Ready: true, Detail: detail}
}

// Unhealthy marks a stage that cannot process items until the detail is
// resolved.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
