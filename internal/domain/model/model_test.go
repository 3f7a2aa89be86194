package model_test

import (
	"testing"
	"time"

	"github.com/okian/obituary/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNaming(t *testing.T) {
	Convey("Given names in different spellings", t, func() {
		Convey("Then NameKey folds case, underscores and spacing", func() {
			So(model.NameKey("Maya_Angelou"), ShouldEqual, model.NameKey("  maya   ANGELOU "))
			So(model.SlugKey("Amy_Winehouse"), ShouldEqual, "amy winehouse")
		})

		Convey("Then NormalizeName also drops diacritics", func() {
			So(model.NormalizeName("José Martí"), ShouldEqual, "jose marti")
			So(model.NameKey("José Martí"), ShouldNotEqual, model.NameKey("Jose Marti"))
		})

		Convey("Then titles lose their qualifier", func() {
			So(model.BaseTitle("John Smith (footballer)"), ShouldEqual, "John Smith")
			So(model.BaseTitle("(Untitled)"), ShouldEqual, "(Untitled)")
			So(model.BaseTitle("Prince"), ShouldEqual, "Prince")
		})

		Convey("Then homonym titles match the literal query", func() {
			So(model.MatchesQuery("John_Smith_(footballer)", "john smith"), ShouldBeTrue)
			So(model.MatchesQuery("John Smithson", "John Smith"), ShouldBeFalse)
			So(model.MatchesQuery("Anything", "   "), ShouldBeFalse)
		})

		Convey("Then queries become slugs and slugs become display names", func() {
			So(model.SlugFromQuery(" Maya  Angelou "), ShouldEqual, "Maya_Angelou")
			So(model.DisplayName("Alan_Rickman"), ShouldEqual, "Alan Rickman")
		})
	})
}

func TestBio(t *testing.T) {
	Convey("Given a bio with a fact block", t, func() {
		bio := model.ComposeBio([]string{model.CauseOfDeathFact("stroke"), ""}, "American poet.")

		Convey("Then the block is terminated by a blank line", func() {
			So(bio, ShouldEqual, "[Cause of death: stroke]\n\nAmerican poet.")
		})

		Convey("Then splitting recovers facts and body", func() {
			facts, body := model.SplitBio(bio)
			So(facts, ShouldResemble, []string{"[Cause of death: stroke]"})
			So(body, ShouldEqual, "American poet.")
		})

		Convey("Then replacing the body keeps the facts", func() {
			So(model.ReplaceBioBody(bio, "Poet and memoirist."), ShouldEqual, "[Cause of death: stroke]\n\nPoet and memoirist.")
		})

		Convey("Then plain paragraphs are not mistaken for facts", func() {
			plain := "First paragraph.\n\nSecond paragraph."
			facts, body := model.SplitBio(plain)
			So(facts, ShouldBeNil)
			So(body, ShouldEqual, plain)
			So(model.ReplaceBioBody(plain, "New."), ShouldEqual, "New.")
		})
	})
}

func TestNormalizeDate(t *testing.T) {
	Convey("Given oracle timestamps", t, func() {
		cases := map[string]string{
			"1928-04-04T00:00:00Z":  "1928-04-04",
			"+2014-05-28T00:00:00Z": "2014-05-28",
			"-0044-03-15T00:00:00Z": "0044-03-15",
			"1950-00-00T00:00:00Z":  "1950-01-01",
			"2001-02-03":            "2001-02-03",
		}
		for raw, want := range cases {
			got, ok := model.NormalizeDate(raw)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, want)
		}

		Convey("Then non-dates are rejected", func() {
			for _, raw := range []string{"", "http://www.wikidata.org/.well-known/genid/abc", "1990-13-40", "12345-01-01"} {
				_, ok := model.NormalizeDate(raw)
				So(ok, ShouldBeFalse)
			}
		})
	})
}

func TestRecordKinds(t *testing.T) {
	Convey("Given sentinel and normal records", t, func() {
		detected := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
		alive := model.NewSentinel(model.KindAliveSentinel, " Living Person ", "alive", detected)

		Convey("Then sentinels carry the marker, the detection date and stay unapproved", func() {
			So(alive.Name, ShouldEqual, model.AliveMarker+"Living Person")
			So(alive.SortKey(), ShouldEqual, "2026-10-15")
			So(alive.Approved, ShouldBeFalse)
			So(alive.IsSentinel(), ShouldBeTrue)
			So(alive.Validate(), ShouldBeNil)
		})

		Convey("Then legacy sentinels are recognised by their marker", func() {
			legacy := model.PersonRecord{Name: model.ErrorMarker + "Nobody"}
			So(legacy.EffectiveKind(), ShouldEqual, model.KindErrorSentinel)
			name, kind := model.StripMarker(legacy.Name)
			So(name, ShouldEqual, "Nobody")
			So(kind, ShouldEqual, model.KindErrorSentinel)
		})

		Convey("Then normal records need a slug and an approved record needs a death date", func() {
			So(model.PersonRecord{Name: "X"}.Validate(), ShouldEqual, model.ErrInvalidRecord)
			rec := model.PersonRecord{Name: "X", Slugs: map[string]string{"EN": "X"}, Approved: true}
			So(rec.Validate(), ShouldEqual, model.ErrInvalidRecord)
			rec.DeathDate = model.StringPtr("2000-01-01")
			So(rec.Validate(), ShouldBeNil)
			So(rec.EffectiveKind(), ShouldEqual, model.KindNormal)
		})

		Convey("Then roles decide default approval", func() {
			So(model.RoleAdmin.AutoApproved(), ShouldBeTrue)
			So(model.RoleHistorical.AutoApproved(), ShouldBeTrue)
			So(model.RoleUser.AutoApproved(), ShouldBeFalse)
		})
	})
}
