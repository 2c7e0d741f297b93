package samplegen_test

import (
	"testing"

	"github.com/okian/splits/internal/domain/model"
	"github.com/okian/splits/internal/domain/timecodec"
	"github.com/okian/splits/internal/samplegen"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	Convey("Given a generator config", t, func() {
		cfg := samplegen.Config{Athletes: 50, Layout: model.DefaultLayout(), MissingRate: 0.2, Seed: 7}

		Convey("When generating twice with the same seed", func() {
			a := samplegen.Generate(cfg)
			b := samplegen.Generate(cfg)

			Convey("Then the tables are identical", func() {
				So(len(a.Rows), ShouldEqual, 50)
				for i := range a.Rows {
					So(a.Rows[i].Equal(b.Rows[i]), ShouldBeTrue)
				}
			})

			Convey("And every duration column parses", func() {
				for _, row := range a.Rows {
					_, err := timecodec.ParseRow(row, cfg.Layout)
					So(err, ShouldBeNil)
				}
			})

			Convey("And some segments are blanked", func() {
				blank := 0
				for _, row := range a.Rows {
					for _, seg := range cfg.Layout.Segments {
						if v, _ := row.Get(seg); v.Text() == "0:00:00" {
							blank++
						}
					}
				}
				So(blank, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When no layout is given", func() {
			table := samplegen.Generate(samplegen.Config{Athletes: 1})
			So(table.Columns, ShouldResemble, []string{"Bib", "Name", "Division", "Swim", "T1", "Bike", "T2", "Run", "Gun"})
		})
	})
}
