package history_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/obituary/internal/domain/history"
	"github.com/okian/obituary/internal/domain/model"
	"github.com/okian/obituary/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeSource struct {
	probeErr error
	rows     map[history.Epoch][]history.Row
	failing  map[history.Epoch]bool
	queries  []history.Query
}

func (f *fakeSource) Probe(context.Context) error { return f.probeErr }

func (f *fakeSource) People(_ context.Context, q history.Query) ([]history.Row, error) {
	f.queries = append(f.queries, q)
	if f.failing[q.Epoch] {
		return nil, errors.New("503 after retries")
	}
	return f.rows[q.Epoch], nil
}

func TestCollect(t *testing.T) {
	Convey("Given an importer over two epochs", t, func() {
		ctx := context.Background()
		early := history.Epoch{From: 1800, To: 1900}
		late := history.Epoch{From: 1990, To: 2000}
		src := &fakeSource{
			rows: map[history.Epoch][]history.Row{
				early: {
					{Title: "Giuseppe Verdi", Slug: "Giuseppe_Verdi", Birth: "1813-10-10T00:00:00Z", Death: "1901-01-27T00:00:00Z", Description: "compositore italiano"},
					{Title: "Nameless", Death: "not a date"},
				},
				late: {
					{Title: "Federico Fellini", Birth: "1920-01-20T00:00:00Z", Death: "1993-10-31T00:00:00Z", ImageURL: "http://commons/fellini.jpg"},
				},
			},
			failing: map[history.Epoch]bool{},
		}
		imp := history.New(src,
			history.WithEpochs(early, late),
			history.WithLanguage("IT"),
			history.WithMinSitelinks(80),
			history.WithLimit(10),
		)

		Convey("When every epoch answers", func() {
			recs, report, err := imp.Collect(ctx)

			Convey("Then rows become approved records in the primary language", func() {
				So(err, ShouldBeNil)
				So(report, ShouldResemble, history.Report{Epochs: 2, Rows: 2, Dropped: 1})
				So(len(recs), ShouldEqual, 2)

				verdi := recs[0]
				So(verdi.Name, ShouldEqual, "Giuseppe Verdi")
				So(verdi.Slugs, ShouldResemble, map[string]string{"IT": "Giuseppe_Verdi"})
				So(verdi.BirthDate, ShouldEqual, "1813-10-10")
				So(*verdi.DeathDate, ShouldEqual, "1901-01-27")
				So(verdi.Approved, ShouldBeTrue)
				So(verdi.Bio, ShouldEqual, "[Source: Wikidata historical import]\n\ncompositore italiano")
				So(verdi.ImageURL, ShouldBeNil)

				fellini := recs[1]
				So(fellini.Slugs["IT"], ShouldEqual, "Federico_Fellini")
				So(*fellini.ImageURL, ShouldEqual, "http://commons/fellini.jpg")
			})

			Convey("Then each query carries the thresholds", func() {
				So(src.queries, ShouldResemble, []history.Query{
					{Epoch: early, Lang: "it", MinSitelinks: 80, Limit: 10},
					{Epoch: late, Lang: "it", MinSitelinks: 80, Limit: 10},
				})
			})
		})

		Convey("When one epoch fails", func() {
			src.failing[early] = true
			recs, report, err := imp.Collect(ctx)

			Convey("Then the other epochs are still imported", func() {
				So(err, ShouldBeNil)
				So(report.Failed, ShouldEqual, 1)
				So(len(recs), ShouldEqual, 1)
				So(recs[0].Name, ShouldEqual, "Federico Fellini")
			})
		})

		Convey("When the probe fails", func() {
			src.probeErr = errors.New("connection refused")
			recs, _, err := imp.Collect(ctx)

			Convey("Then the run aborts as source unavailable", func() {
				So(errors.Is(err, model.ErrSourceUnavailable), ShouldBeTrue)
				So(recs, ShouldBeNil)
				So(src.queries, ShouldBeEmpty)
			})
		})
	})
}

func TestParseEpochs(t *testing.T) {
	Convey("Given epoch strings", t, func() {
		Convey("When they are well formed", func() {
			got, err := history.ParseEpochs([]string{"1800-1900", " 2020 - 2030 "})

			Convey("Then they parse in order", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []history.Epoch{{From: 1800, To: 1900}, {From: 2020, To: 2030}})
				So(got[0].String(), ShouldEqual, "1800-1900")
			})
		})

		Convey("When one is malformed or empty", func() {
			for _, bad := range []string{"1900", "1900-1800", "abc-1900", "1900-1900"} {
				_, err := history.ParseEpochs([]string{"1800-1900", bad})
				So(errors.Is(err, history.ErrInvalidEpoch), ShouldBeTrue)
			}
		})

		Convey("Then the defaults are contiguous", func() {
			d := history.DefaultEpochs()
			for i := 1; i < len(d); i++ {
				So(d[i].From, ShouldEqual, d[i-1].To)
			}
		})
	})
}
