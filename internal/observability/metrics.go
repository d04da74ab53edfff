package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsCreated counts successfully created posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_posts_created_total",
		Help: "Total number of posts created",
	})

	// PostsEdited counts successful edits by the post author.
	PostsEdited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_posts_edited_total",
		Help: "Total number of posts edited by their author",
	})

	// EditRefusals counts edit attempts by callers who are not the author.
	EditRefusals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_post_edit_refusals_total",
		Help: "Total number of post edits refused because the caller is not the author",
	})

	// FormRejections counts submissions rejected by validation, by form name.
	FormRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_form_rejections_total",
		Help: "Total number of form submissions rejected by validation",
	}, []string{"form"})

	// LoginFailures counts rejected login attempts.
	LoginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_login_failures_total",
		Help: "Total number of failed login attempts",
	})
)
