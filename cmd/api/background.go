package main

import (
	"fmt"

	"curate/internal/mailer"
	"curate/internal/store"
)

// background runs fn on its own goroutine. A panic is logged, never fatal.
func (app *application) background(fn func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				app.logger.Errorw("background task panicked", "error", fmt.Sprint(err))
			}
		}()
		fn()
	}()
}

// notifyFeedback emails the admin inbox about new feedback. It is a no-op
// when no mailer or inbox is configured.
func (app *application) notifyFeedback(fb store.Feedback) {
	to := app.config.SMTP.NotifyTo
	if app.mailer == nil || to == "" {
		return
	}

	app.background(func() {
		status, err := app.mailer.Send(mailer.FeedbackNotificationTemplate, mailer.FromName, to, fb)
		if err != nil {
			app.logger.Errorw("error sending feedback notification", "feedback_id", fb.ID, "error", err)
			return
		}
		app.logger.Infow("feedback notification sent", "feedback_id", fb.ID, "status", status)
	})
}
