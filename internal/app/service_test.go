package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	repository "github.com/okian/obituary/internal/adapters/repository"
	service "github.com/okian/obituary/internal/app"
	"github.com/okian/obituary/internal/domain/enrich"
	"github.com/okian/obituary/internal/domain/history"
	"github.com/okian/obituary/internal/domain/model"
	"github.com/okian/obituary/internal/domain/reconcile"
	"github.com/okian/obituary/internal/domain/resolve"
	"github.com/okian/obituary/internal/domain/verify"
	"github.com/okian/obituary/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func str(s string) *string { return &s }

// wiki stands in for both the encyclopedia and the structured-data oracle.
type wiki struct {
	pages   map[string]model.Summary
	dates   map[string]verify.Dates
	images   map[string]string
	searches map[string][]string
	fetches  int
}

func newWiki() *wiki {
	return &wiki{
		pages:  map[string]model.Summary{},
		dates:  map[string]verify.Dates{},
		images:   map[string]string{},
		searches: map[string][]string{},
	}
}

func (w *wiki) person(slug, extract string, d verify.Dates) {
	w.pages["en/"+model.SlugKey(slug)] = model.Summary{
		Title:         model.DisplayName(slug),
		CanonicalSlug: slug,
		Extract:       extract,
	}
	w.dates[slug] = d
}

func (w *wiki) Summary(_ context.Context, slug, lang string) (model.Summary, error) {
	w.fetches++
	s, ok := w.pages[lang+"/"+model.SlugKey(slug)]
	if !ok {
		return model.Summary{}, model.ErrNotFound
	}
	return s, nil
}

func (w *wiki) Search(_ context.Context, query, lang string, _ int) ([]string, error) {
	return w.searches[lang+"/"+query], nil
}

func (w *wiki) Suggest(context.Context, string, string) (string, error) { return "", nil }

func (w *wiki) Dates(_ context.Context, slug, _ string) (verify.Dates, error) {
	d, ok := w.dates[slug]
	if !ok {
		return verify.Dates{}, model.ErrNotFound
	}
	return d, nil
}

func (w *wiki) Image(_ context.Context, slug, _ string) (string, error) {
	return w.images[slug], nil
}

const (
	angelouExtract   = "Maya Angelou was an American memoirist, poet and civil rights activist."
	winehouseExtract = "Amy Jade Winehouse was an English singer and songwriter known for her voice."
	livingExtract    = "LivingPersonX is a fictional performer used to exercise the registry."
)

func fixture(t *testing.T) (*service.Service, *repository.FileStore, *wiki) {
	w := newWiki()
	w.person("Maya_Angelou", angelouExtract, verify.Dates{
		Birth: "+1928-04-04T00:00:00Z",
		Death: str("+2014-05-28T00:00:00Z"),
	})
	w.person("Amy_Winehouse", winehouseExtract, verify.Dates{
		Birth:        "+1983-09-14T00:00:00Z",
		Death:        str("+2011-07-23T00:00:00Z"),
		CauseOfDeath: "alcohol intoxication",
	})
	w.person("LivingPersonX", livingExtract, verify.Dates{Birth: "+1990-01-01T00:00:00Z"})

	dir := t.TempDir()
	store := repository.NewFileStore(filepath.Join(dir, "library.json"))
	svc := service.New(store,
		service.WithViewRecorder(repository.NewAnalyticsStore(filepath.Join(dir, "analytics.json"))),
		service.WithResolver(resolve.New(w)),
		service.WithVerifier(verify.New(w)),
		service.WithEnricher(enrich.New(w, enrich.WithImageOracle(w))),
	)
	return svc, store, w
}

func records(store *repository.FileStore) []model.PersonRecord {
	reg, err := store.Load(context.Background())
	So(err, ShouldBeNil)
	return reg.Records()
}

func TestService_Add(t *testing.T) {
	Convey("Given a service over an empty registry", t, func() {
		ctx := context.Background()
		svc, store, w := fixture(t)

		Convey("When an admin adds a deceased person", func() {
			res, err := svc.Execute(ctx, "ADMIN_REQUEST: Maya Angelou")

			Convey("Then an approved record is inserted", func() {
				So(err, ShouldBeNil)
				So(res.Kind, ShouldEqual, "add")
				So(res.Outcome, ShouldEqual, reconcile.OutcomeInserted)
				So(res.Names, ShouldResemble, []string{"Maya Angelou"})

				recs := records(store)
				So(recs, ShouldHaveLength, 1)
				So(recs[0].Name, ShouldEqual, "Maya Angelou")
				So(*recs[0].DeathDate, ShouldEqual, "2014-05-28")
				So(recs[0].BirthDate, ShouldEqual, "1928-04-04")
				So(recs[0].Approved, ShouldBeTrue)
				So(recs[0].Slugs, ShouldResemble, map[string]string{"EN": "Maya_Angelou"})
			})

			Convey("And adding the same name again is a no-op", func() {
				again, err := svc.Execute(ctx, "USER_REQUEST: maya angelou")
				So(err, ShouldBeNil)
				So(again.Changed, ShouldBeFalse)
				So(again.Outcome, ShouldEqual, reconcile.OutcomeDuplicate)
				So(again.Names, ShouldBeEmpty)
				So(records(store), ShouldHaveLength, 1)
			})
		})

		Convey("When a stored name has a homonym that is not stored yet", func() {
			w.person("John_Smith", "John Smith was an English footballer who played as a forward.", verify.Dates{
				Birth: "+1898-01-01T00:00:00Z",
				Death: str("+1960-06-01T00:00:00Z"),
			})
			w.person("John_Smith_(explorer)", "John Smith was an English soldier, explorer and colonial governor.", verify.Dates{
				Birth: "+1580-01-09T00:00:00Z",
				Death: str("+1631-06-21T00:00:00Z"),
			})
			w.searches["en/John Smith"] = []string{"John Smith", "John Smith (explorer)"}
			So(store.Save(ctx, repository.NewRegistry([]model.PersonRecord{{
				Name:      "John Smith",
				Slugs:     map[string]string{"EN": "John_Smith"},
				DeathDate: str("1960-06-01"),
				Approved:  true,
				Kind:      model.KindNormal,
			}})), ShouldBeNil)

			res, err := svc.Execute(ctx, "ADMIN_REQUEST: John Smith")

			Convey("Then only the homonym is inserted", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, reconcile.OutcomeInserted)
				So(res.Names, ShouldResemble, []string{"John Smith (explorer)"})
				recs := records(store)
				So(recs, ShouldHaveLength, 2)
				So(*recs[0].DeathDate, ShouldEqual, "1631-06-21")
			})

			Convey("And a repeat request inserts nothing", func() {
				again, err := svc.Execute(ctx, "ADMIN_REQUEST: John Smith")
				So(err, ShouldBeNil)
				So(again.Outcome, ShouldEqual, reconcile.OutcomeDuplicate)
				So(records(store), ShouldHaveLength, 2)
			})
		})

		Convey("When a user adds a deceased person", func() {
			_, err := svc.Execute(ctx, "USER_REQUEST: Amy Winehouse")

			Convey("Then the record waits for approval with its cause of death", func() {
				So(err, ShouldBeNil)
				recs := records(store)
				So(recs, ShouldHaveLength, 1)
				So(recs[0].Approved, ShouldBeFalse)
				So(recs[0].Bio, ShouldContainSubstring, "alcohol intoxication")
			})
		})

		Convey("When someone still alive is requested", func() {
			res, err := svc.Execute(ctx, "ADMIN_REQUEST: LivingPersonX")

			Convey("Then an unapproved alive sentinel is queued", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, reconcile.OutcomeAliveSentinel)
				recs := records(store)
				So(recs, ShouldHaveLength, 1)
				So(recs[0].Name, ShouldEqual, model.SentinelName(model.KindAliveSentinel, "LivingPersonX"))
				So(recs[0].Approved, ShouldBeFalse)
				So(recs[0].Kind, ShouldEqual, model.KindAliveSentinel)
			})

			Convey("And repeating the request does not queue a second sentinel", func() {
				again, err := svc.Execute(ctx, "ADMIN_REQUEST: LivingPersonX")
				So(err, ShouldBeNil)
				So(again.Changed, ShouldBeFalse)
				So(records(store), ShouldHaveLength, 1)
			})
		})

		Convey("When nothing can be resolved", func() {
			res, err := svc.Execute(ctx, "ADMIN_REQUEST: Nobody At All")

			Convey("Then an error sentinel is queued", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, reconcile.OutcomeErrorSentinel)
				recs := records(store)
				So(recs, ShouldHaveLength, 1)
				So(recs[0].Kind, ShouldEqual, model.KindErrorSentinel)
			})
		})

		Convey("When the text is not a command", func() {
			res, err := svc.Execute(ctx, "hello there")

			Convey("Then nothing is written", func() {
				So(err, ShouldBeNil)
				So(res.Kind, ShouldEqual, "unknown")
				So(res.Changed, ShouldBeFalse)
				So(records(store), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a service without a resolver", t, func() {
		store := repository.NewFileStore(filepath.Join(t.TempDir(), "library.json"))
		svc := service.New(store)

		Convey("Then ADD reports the missing component", func() {
			_, err := svc.Execute(context.Background(), "ADMIN_REQUEST: Maya Angelou")
			So(errors.Is(err, service.ErrNotConfigured), ShouldBeTrue)
		})
	})
}

func TestService_Moderation(t *testing.T) {
	Convey("Given a registry with pending records", t, func() {
		ctx := context.Background()
		svc, store, _ := fixture(t)
		for _, raw := range []string{
			"USER_REQUEST: Maya Angelou",
			"USER_REQUEST: Amy Winehouse",
			"USER_REQUEST: LivingPersonX",
		} {
			_, err := svc.Execute(ctx, raw)
			So(err, ShouldBeNil)
		}
		So(records(store), ShouldHaveLength, 3)

		Convey("When one name is approved", func() {
			res, err := svc.Execute(ctx, "APPROVE: Maya Angelou")

			Convey("Then only that record flips", func() {
				So(err, ShouldBeNil)
				So(res.Affected, ShouldEqual, 1)
				approved := 0
				for _, r := range records(store) {
					if r.Approved {
						approved++
						So(r.Name, ShouldEqual, "Maya Angelou")
					}
				}
				So(approved, ShouldEqual, 1)
			})
		})

		Convey("When every record is approved", func() {
			res, err := svc.Execute(ctx, "APPROVE_ALL")

			Convey("Then sentinels stay pending", func() {
				So(err, ShouldBeNil)
				So(res.Affected, ShouldEqual, 2)
				for _, r := range records(store) {
					So(r.Approved, ShouldEqual, !r.IsSentinel())
				}
			})
		})

		Convey("When a bulk approval names a missing person", func() {
			res, err := svc.Execute(ctx, "APPROVE_BULK: Amy Winehouse | Nobody")

			Convey("Then the known name is approved", func() {
				So(err, ShouldBeNil)
				So(res.Affected, ShouldEqual, 1)
			})
		})

		Convey("When a sentinel is deleted by its query", func() {
			res, err := svc.Execute(ctx, "DELETE: LivingPersonX")

			Convey("Then it is removed", func() {
				So(err, ShouldBeNil)
				So(res.Affected, ShouldEqual, 1)
				So(records(store), ShouldHaveLength, 2)
			})
		})

		Convey("When several records are bulk deleted", func() {
			res, err := svc.Execute(ctx, "DELETE_BULK: Maya Angelou|Amy Winehouse")

			Convey("Then both are gone", func() {
				So(err, ShouldBeNil)
				So(res.Affected, ShouldEqual, 2)
				So(records(store), ShouldHaveLength, 1)
			})
		})

		Convey("When deleting a name that is not there", func() {
			res, err := svc.Execute(ctx, "DELETE: Nobody")

			Convey("Then nothing changes", func() {
				So(err, ShouldBeNil)
				So(res.Changed, ShouldBeFalse)
				So(records(store), ShouldHaveLength, 3)
			})
		})
	})
}

func TestService_ApproveSharedName(t *testing.T) {
	Convey("Given two pending records with the same name", t, func() {
		ctx := context.Background()
		svc, store, _ := fixture(t)
		So(store.Save(ctx, repository.NewRegistry([]model.PersonRecord{
			{Name: "X", Slugs: map[string]string{"EN": "X_(band)"}, DeathDate: str("1999-01-01"), Kind: model.KindNormal},
			{Name: "X", Slugs: map[string]string{"EN": "X_(poet)"}, DeathDate: str("2001-01-01"), Kind: model.KindNormal},
		})), ShouldBeNil)

		Convey("When the name is approved", func() {
			res, err := svc.Execute(ctx, "APPROVE: X")

			Convey("Then only the earlier record is approved", func() {
				So(err, ShouldBeNil)
				So(res.Affected, ShouldEqual, 1)
				recs := records(store)
				So(recs[0].Approved, ShouldBeTrue)
				So(recs[1].Approved, ShouldBeFalse)
			})
		})
	})
}

func TestService_View(t *testing.T) {
	Convey("Given a service with analytics", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		views := repository.NewAnalyticsStore(filepath.Join(dir, "analytics.json"))
		svc := service.New(repository.NewFileStore(filepath.Join(dir, "library.json")),
			service.WithViewRecorder(views))

		Convey("When views are recorded", func() {
			_, err := svc.Execute(ctx, "VIEW: Maya Angelou | 30")
			So(err, ShouldBeNil)
			_, err = svc.Execute(ctx, "VIEW: Maya Angelou | oops")
			So(err, ShouldBeNil)

			Convey("Then counts and seconds accumulate", func() {
				stats, err := views.Load(ctx)
				So(err, ShouldBeNil)
				So(stats["Maya Angelou"], ShouldResemble, repository.ViewStats{Views: 2, Time: 30})
			})
		})
	})
}

type historySource struct {
	probeErr error
	rows     []history.Row
}

func (h *historySource) Probe(context.Context) error { return h.probeErr }

func (h *historySource) People(_ context.Context, q history.Query) ([]history.Row, error) {
	if q.Epoch.From != 1900 {
		return nil, nil
	}
	return h.rows, nil
}

func TestService_ImportHistorical(t *testing.T) {
	Convey("Given a registry that already holds one historical figure", t, func() {
		ctx := context.Background()
		svc, store, _ := fixture(t)
		_, err := svc.Execute(ctx, "ADMIN_REQUEST: Maya Angelou")
		So(err, ShouldBeNil)

		src := &historySource{rows: []history.Row{
			{Title: "Maya Angelou", Slug: "Maya_Angelou", Birth: "1928-04-04", Death: "2014-05-28"},
			{Title: "Albert Einstein", Slug: "Albert_Einstein", Birth: "1879-03-14", Death: "1955-04-18", Description: "physicist"},
			{Title: "Undated", Slug: "Undated"},
		}}
		withImporter := func(s history.Source) *service.Service {
			return service.New(store, service.WithImporter(history.New(s,
				history.WithEpochs(history.Epoch{From: 1900, To: 1960}, history.Epoch{From: 1960, To: 2020}),
				history.WithLanguage("en"),
			)))
		}

		Convey("When the import runs", func() {
			res, err := withImporter(src).ImportHistorical(ctx)

			Convey("Then only the new dated person is added, approved", func() {
				So(err, ShouldBeNil)
				So(res.Affected, ShouldEqual, 1)
				recs := records(store)
				So(recs, ShouldHaveLength, 2)
				for _, r := range recs {
					So(r.Approved, ShouldBeTrue)
				}
			})
		})

		Convey("When the source is unreachable", func() {
			src.probeErr = errors.New("dial tcp: timeout")
			_, err := withImporter(src).ImportHistorical(ctx)

			Convey("Then the import fails without touching the registry", func() {
				So(errors.Is(err, model.ErrSourceUnavailable), ShouldBeTrue)
				So(records(store), ShouldHaveLength, 1)
			})
		})
	})
}

func TestService_Enrichment(t *testing.T) {
	Convey("Given a stored record without an image", t, func() {
		ctx := context.Background()
		svc, store, w := fixture(t)
		_, err := svc.Execute(ctx, "ADMIN_REQUEST: Maya Angelou")
		So(err, ShouldBeNil)

		Convey("When images are repaired", func() {
			w.images["Maya_Angelou"] = "https://upload.example/angelou.jpg"
			res, err := svc.RepairImages(ctx)

			Convey("Then the oracle image is saved", func() {
				So(err, ShouldBeNil)
				So(res.Affected, ShouldEqual, 1)
				recs := records(store)
				So(recs[0].ImageURL, ShouldNotBeNil)
				So(*recs[0].ImageURL, ShouldEqual, "https://upload.example/angelou.jpg")
			})
		})

		Convey("When bios are refreshed after the page changed", func() {
			page := w.pages["en/"+model.SlugKey("Maya_Angelou")]
			page.Extract = "Marguerite Annie Johnson, known as Maya Angelou, was an American poet."
			w.pages["en/"+model.SlugKey("Maya_Angelou")] = page
			res, err := svc.RefreshBios(ctx)

			Convey("Then the new text is stored", func() {
				So(err, ShouldBeNil)
				So(res.Affected, ShouldEqual, 1)
				So(records(store)[0].Bio, ShouldContainSubstring, "Marguerite Annie Johnson")
			})
		})
	})

	Convey("Given a service without an enricher", t, func() {
		svc := service.New(repository.NewFileStore(filepath.Join(t.TempDir(), "library.json")))

		Convey("Then batch jobs report the missing component", func() {
			_, err := svc.RepairImages(context.Background())
			So(errors.Is(err, service.ErrNotConfigured), ShouldBeTrue)
		})
	})
}
