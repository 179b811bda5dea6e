package main

import (
	"net/http"

	"curate/internal/domain/catalog"
	"curate/internal/store"

	"golang.org/x/sync/errgroup"
)

type TrafficPoint struct {
	Date   string `json:"date"`
	Clicks int    `json:"clicks"`
}

type AnalyticsResponse struct {
	*catalog.Overview
	TotalFeedback int            `json:"totalFeedback"`
	AverageRating float64        `json:"averageRating"`
	Traffic       []TrafficPoint `json:"traffic"`
}

// Analytics godoc
//
//	@Summary		Dashboard analytics
//	@Description	Catalog totals and feedback stats. Traffic stays empty until clicks are recorded somewhere.
//	@Tags			analytics
//	@Produce		json
//	@Success		200	{object}	AnalyticsResponse	"Dashboard data"
//	@Failure		500	{object}	error				"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/analytics [get]
func (app *application) analyticsHandler(w http.ResponseWriter, r *http.Request) {
	var (
		overview *catalog.Overview
		fbStats  store.FeedbackStats
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		overview, err = app.catalog.Overview(ctx)
		return err
	})
	g.Go(func() (err error) {
		fbStats, err = app.store.Feedback.Stats(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := AnalyticsResponse{
		Overview:      overview,
		TotalFeedback: fbStats.Total,
		AverageRating: catalog.RoundTenth(fbStats.AverageRating),
		Traffic:       []TrafficPoint{},
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
