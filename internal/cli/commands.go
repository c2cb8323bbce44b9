package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/ukydev/triptap-rides/internal/catalog"
	"github.com/ukydev/triptap-rides/internal/models"
	"github.com/ukydev/triptap-rides/internal/ride"
	"github.com/ukydev/triptap-rides/internal/tracker"
)

func newRoutesCmd(app *App) *cobra.Command {
	var origin string
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the active predefined routes and their prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var routes []models.Route
			if origin != "" {
				r, err := app.Client.FetchRoutesByOrigin(ctx, origin)
				if err != nil {
					return fmt.Errorf("fetch routes from %s: %w", origin, err)
				}
				routes = []models.Route{r}
			} else {
				all, err := app.Client.FetchAllRoutes(ctx)
				if err != nil {
					return fmt.Errorf("fetch routes: %w", err)
				}
				routes = all
			}
			printRoutes(app, catalog.Active(routes))
			return nil
		},
	}
	cmd.Flags().StringVarP(&origin, "origin", "o", "", "Only routes leaving from this origin")
	return cmd
}

func printRoutes(app *App, routes []models.Route) {
	lang := app.Translator.Lang()
	w := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORIGIN\tDESTINATION\tVEHICLE\tSEATS\tPRICE\tMINUTES")
	for _, r := range routes {
		for _, d := range r.Destinations {
			for _, p := range d.Prices {
				seats := "-"
				if info, ok := p.VehicleType.Info(); ok {
					seats = info.Capacity
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.0f\n", r.Origin, d.Name, p.VehicleType.LabelIn(lang), seats, p.Price, p.EstimatedTime)
			}
		}
	}
	w.Flush()
}

func newFareCmd(app *App) *cobra.Command {
	var sel selectionFlags
	cmd := &cobra.Command{
		Use:   "fare",
		Short: "Quote the fare for an origin, destination and vehicle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := sel.vehicle()
			if err != nil {
				return err
			}
			q, err := app.Client.FetchFare(cmd.Context(), sel.origin, sel.destination, v)
			if err != nil {
				return fmt.Errorf("fetch fare: %w", err)
			}
			fmt.Fprintf(app.Out, "%s -> %s (%s): $%.2f, ~%.0f min\n",
				sel.origin, sel.destination, v.LabelIn(app.Translator.Lang()), q.Fare, q.EstimatedTime)
			return nil
		},
	}
	sel.register(cmd)
	return cmd
}

type selectionFlags struct {
	origin      string
	destination string
	vehicleType string
}

func (s *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.origin, "origin", "o", "", "Pickup origin")
	cmd.Flags().StringVarP(&s.destination, "destination", "d", "", "Drop-off destination")
	cmd.Flags().StringVarP(&s.vehicleType, "vehicle", "v", string(models.VehicleNormal), "Vehicle type (NORMAL, MINIVAN, LUXURY)")
	cmd.MarkFlagRequired("origin")
	cmd.MarkFlagRequired("destination")
}

func (s *selectionFlags) vehicle() (models.VehicleType, error) {
	v := models.VehicleType(strings.ToUpper(strings.TrimSpace(s.vehicleType)))
	if !models.IsValidVehicleType(v) {
		return "", fmt.Errorf("unknown vehicle type %q", s.vehicleType)
	}
	return v, nil
}

func newRequestCmd(app *App) *cobra.Command {
	var (
		sel     selectionFlags
		details = ride.DefaultDetails()
		follow  bool
	)
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Request a ride",
		Long:  "Request a ride now, or schedule it with --date and --hour.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := sel.vehicle()
			if err != nil {
				return err
			}
			d := details
			d.IsNowTrip = d.DateTrip == "" && d.HourTrip == ""

			res, err := app.requestRide(cmd.Context(), ride.Selection{Origin: sel.origin, Destination: sel.destination, Vehicle: v}, d)
			if err != nil {
				return err
			}
			if follow {
				return app.track(cmd.Context(), res.RequestID)
			}
			return nil
		},
	}
	sel.register(cmd)
	f := cmd.Flags()
	f.StringVar(&details.Name, "name", "", "Full name")
	f.StringVar(&details.Email, "email", "", "Contact email")
	f.StringVar(&details.Phone, "phone", "", "Contact phone")
	f.StringVar(&details.DateTrip, "date", "", "Scheduled date (YYYY-MM-DD)")
	f.StringVar(&details.HourTrip, "hour", "", "Scheduled time (HH:MM)")
	f.StringVar(&details.Bags, "bags", details.Bags, "Number of bags")
	f.StringVar(&details.Temperature, "temperature", details.Temperature, "Cabin temperature in °C")
	f.BoolVar(&details.MusicActive, "music", false, "Music during the ride")
	f.BoolVar(&follow, "follow", false, "Track the trip until it finishes")
	return cmd
}

// requestRide drives the ride flow from selection to submission.
func (a *App) requestRide(ctx context.Context, sel ride.Selection, d ride.CustomerDetails) (models.TripSubmissionResult, error) {
	nav := ride.LogNavigator{BaseURL: a.Config.Tracker.BaseURL, Log: a.Log}
	flow := ride.NewFlow(a.Client, a.Store, nav, a.Translator, a.Log)

	if err := flow.Load(ctx); err != nil {
		return models.TripSubmissionResult{}, errors.New(flow.Snapshot().Error)
	}
	steps := []func() error{
		func() error { return flow.SelectOrigin(ctx, sel.Origin) },
		func() error { return flow.SelectDestination(ctx, sel.Destination) },
		func() error { return flow.SelectVehicle(ctx, sel.Vehicle) },
		flow.Confirm,
		func() error { return flow.SetDetails(d) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return models.TripSubmissionResult{}, err
		}
	}

	res, err := flow.Submit(ctx)
	if err != nil {
		if msg := flow.Snapshot().Error; msg != "" {
			return models.TripSubmissionResult{}, errors.New(msg)
		}
		return models.TripSubmissionResult{}, err
	}

	if ack, ok := flow.Acknowledgement(); ok {
		fmt.Fprintln(a.Out, ack.Title)
		fmt.Fprintln(a.Out, ack.Detail)
	}
	fmt.Fprintf(a.Out, "Tracker: %s\n", ride.TrackerURL(a.Config.Tracker.BaseURL, res.RequestID))
	return res, nil
}

const trackLong = `Follow a trip until it completes or is cancelled.

The trip summary (route, vehicle, fare) is read from the hand-off store written
by "request". The default HANDOFF_BACKEND=memory only lives for one process, so
a separate "track" run shows the summary only with HANDOFF_BACKEND=mongo or
redis. With the memory backend use "request --follow" instead.`

func newTrackCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "track <requestId>",
		Short: "Follow a trip until it completes or is cancelled",
		Long:  trackLong,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.track(cmd.Context(), args[0])
		},
	}
}

func (a *App) track(ctx context.Context, requestID string) error {
	opts := []tracker.Option{
		tracker.WithInterval(a.Config.Tracker.PollInterval),
		tracker.WithLogger(a.Log),
		tracker.WithObserver(&viewPrinter{app: a}),
	}
	for _, o := range a.Observers {
		opts = append(opts, tracker.WithObserver(o))
	}
	t := tracker.New(a.Client, a.Store, requestID, a.Translator, opts...)
	err := t.Run(ctx)
	if errors.Is(err, tracker.ErrMissingRequestID) {
		return errors.New(t.View().Error)
	}
	return err
}

// viewPrinter writes one line per visible change of the tracker view.
type viewPrinter struct {
	app  *App
	last string
}

func (p *viewPrinter) TripUpdated(v tracker.View) {
	line := renderView(v)
	if line == p.last {
		return
	}
	p.last = line
	fmt.Fprintln(p.app.Out, line)
}

func renderView(v tracker.View) string {
	var b strings.Builder
	switch {
	case v.Cancelled:
		fmt.Fprintf(&b, "[x] %s", v.Headline)
	case v.StageIndex >= 0:
		fmt.Fprintf(&b, "[%d/%d] %s", v.StageIndex+1, len(models.StageList), v.Headline)
	default:
		fmt.Fprintf(&b, "[-] %s", v.Headline)
	}
	if v.Handoff != nil {
		fmt.Fprintf(&b, " | %s -> %s, %s, $%.2f", v.Handoff.Origin, v.Handoff.Destination, v.Handoff.VehicleType, v.Handoff.Fare)
	}
	if v.Status != nil && v.Status.Driver != nil {
		d := v.Status.Driver
		fmt.Fprintf(&b, " | %s, %s %s %s", d.Name, d.Vehicle.Color, d.Vehicle.Brand, d.Vehicle.PlateNumber)
	}
	if v.Error != "" {
		fmt.Fprintf(&b, " (%s)", v.Error)
	}
	return b.String()
}
