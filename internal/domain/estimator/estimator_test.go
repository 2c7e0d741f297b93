package estimator_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/okian/splits/internal/domain/estimator"
	"github.com/okian/splits/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var columns = []string{"Name", "Swim", "T1", "Bike", "T2", "Run", "Gun"}

func resultRow(name string, swim, t1, bike, t2, run, gun int) model.Row {
	return model.NewRow(columns, []model.Value{
		model.Text(name),
		model.Seconds(swim), model.Seconds(t1), model.Seconds(bike),
		model.Seconds(t2), model.Seconds(run), model.Seconds(gun),
	})
}

func segmentSum(row model.Row, layout model.Layout) int {
	sum := 0
	for _, seg := range layout.Segments {
		v, _ := row.Seconds(seg)
		sum += v
	}
	return sum
}

func TestPatchRow(t *testing.T) {
	layout := model.DefaultLayout()
	proportions := estimator.Fractions(map[string]float64{"Swim": 0.2, "T1": 0.03, "Bike": 0.45, "T2": 0.02, "Run": 0.3})

	Convey("Given a row missing Swim and T1", t, func() {
		row := resultRow("A", 0, 0, 2300, 60, 1200, 4160)

		Convey("When patching with fixed proportions", func() {
			patched, err := estimator.PatchRow(row, proportions, layout)
			So(err, ShouldBeNil)

			Convey("Then the 600 uncounted seconds are split 0.2:0.03", func() {
				swim, _ := patched.Seconds("Swim")
				t1, _ := patched.Seconds("T1")
				So(swim, ShouldEqual, 522)
				So(t1, ShouldEqual, 78)
			})

			Convey("And the segments add back up to the gun time", func() {
				So(segmentSum(patched, layout), ShouldEqual, 4160)
			})

			Convey("And recorded and text columns are copied", func() {
				bike, _ := patched.Seconds("Bike")
				So(bike, ShouldEqual, 2300)
				name, _ := patched.Get("Name")
				So(name, ShouldResemble, model.Text("A"))
			})

			Convey("And the input row still holds the sentinel", func() {
				swim, _ := row.Seconds("Swim")
				So(swim, ShouldEqual, 0)
			})

			Convey("And patching again is a no-op", func() {
				again, err := estimator.PatchRow(patched, proportions, layout)
				So(err, ShouldBeNil)
				So(again.Equal(patched), ShouldBeTrue)
			})
		})
	})

	Convey("Given a complete row", t, func() {
		row := resultRow("B", 600, 60, 2400, 60, 1200, 4400)
		patched, err := estimator.PatchRow(row, proportions, layout)
		So(err, ShouldBeNil)
		So(patched.Equal(row), ShouldBeTrue)
	})

	Convey("Given an exact half-second tie", t, func() {
		even := estimator.Fractions(map[string]float64{"Swim": 0.25, "T1": 0.25, "Bike": 0.25, "T2": 0.125, "Run": 0.125})

		Convey("Then 2.5 rounds down to the even 2", func() {
			row := resultRow("C", 0, 0, 100, 10, 10, 125)
			patched, err := estimator.PatchRow(row, even, layout)
			So(err, ShouldBeNil)
			swim, _ := patched.Seconds("Swim")
			t1, _ := patched.Seconds("T1")
			So(swim, ShouldEqual, 2)
			So(t1, ShouldEqual, 2)
			So(segmentSum(patched, layout), ShouldEqual, 124)
		})

		Convey("Then 3.5 rounds up to the even 4", func() {
			row := resultRow("D", 0, 0, 100, 10, 10, 127)
			patched, err := estimator.PatchRow(row, even, layout)
			So(err, ShouldBeNil)
			swim, _ := patched.Seconds("Swim")
			So(swim, ShouldEqual, 4)
			So(segmentSum(patched, layout), ShouldEqual, 128)
		})
	})

	Convey("Given cohort shares that are not exact in binary", t, func() {
		// Swim and T1 each hold 1 of 34 cohort seconds, so each gets half of
		// the row's uncounted time.
		cohort := []model.Row{resultRow("I", 1, 1, 10, 1, 21, 34)}
		p, err := estimator.ComputeProportions(cohort, layout)
		So(err, ShouldBeNil)

		Convey("Then 1.5 rounds up to the even 2", func() {
			row := resultRow("J", 0, 0, 10, 1, 21, 35)
			patched, err := estimator.PatchRow(row, p, layout)
			So(err, ShouldBeNil)
			swim, _ := patched.Seconds("Swim")
			t1, _ := patched.Seconds("T1")
			So(swim, ShouldEqual, 2)
			So(t1, ShouldEqual, 2)
		})

		Convey("Then 2.5 rounds down to the even 2", func() {
			row := resultRow("K", 0, 0, 10, 1, 21, 37)
			patched, err := estimator.PatchRow(row, p, layout)
			So(err, ShouldBeNil)
			swim, _ := patched.Seconds("Swim")
			So(swim, ShouldEqual, 2)
		})

		Convey("Then a one-third share is not mistaken for a tie", func() {
			uneven := []model.Row{resultRow("L", 1, 2, 10, 1, 20, 34)}
			q, err := estimator.ComputeProportions(uneven, layout)
			So(err, ShouldBeNil)
			row := resultRow("M", 0, 0, 10, 1, 20, 35)
			patched, err := estimator.PatchRow(row, q, layout)
			So(err, ShouldBeNil)
			swim, _ := patched.Seconds("Swim")
			t1, _ := patched.Seconds("T1")
			So(swim, ShouldEqual, 1)
			So(t1, ShouldEqual, 3)
		})
	})

	Convey("Given segments that exceed the gun time", t, func() {
		row := resultRow("E", 0, 60, 2400, 60, 1200, 3000)
		_, err := estimator.PatchRow(row, proportions, layout)
		So(errors.Is(err, estimator.ErrNegativeUncounted), ShouldBeTrue)
	})

	Convey("Given missing segments with zero proportion", t, func() {
		zeroT := estimator.Fractions(map[string]float64{"Swim": 0.3, "T1": 0, "Bike": 0.4, "T2": 0, "Run": 0.3})
		row := resultRow("F", 600, 0, 2400, 0, 1200, 4300)
		_, err := estimator.PatchRow(row, zeroT, layout)
		So(errors.Is(err, estimator.ErrDegenerateRow), ShouldBeTrue)
	})

	Convey("Given proportions lacking a missing segment", t, func() {
		partial := estimator.Fractions(map[string]float64{"Bike": 0.5})
		row := resultRow("G", 0, 60, 2400, 60, 1200, 4300)
		_, err := estimator.PatchRow(row, partial, layout)
		So(errors.Is(err, estimator.ErrUnknownSegment), ShouldBeTrue)
	})

	Convey("Given a row whose segment is still text", t, func() {
		row := resultRow("H", 0, 60, 2400, 60, 1200, 4300).With("Run", model.Text("DNF"))
		_, err := estimator.PatchRow(row, proportions, layout)
		So(errors.Is(err, estimator.ErrColumn), ShouldBeTrue)
	})
}

func TestComputeProportions(t *testing.T) {
	layout := model.DefaultLayout()

	Convey("Given a small cohort", t, func() {
		cohort := []model.Row{
			resultRow("A", 600, 60, 2400, 60, 1200, 4400),
			resultRow("B", 0, 0, 2300, 60, 1200, 4160),
		}

		p, err := estimator.ComputeProportions(cohort, layout)
		So(err, ShouldBeNil)

		Convey("Then each share is the segment sum over the gun sum", func() {
			So(p["Swim"].Cmp(big.NewRat(600, 8560)), ShouldEqual, 0)
			So(p["Bike"].Cmp(big.NewRat(4700, 8560)), ShouldEqual, 0)
			So(p["Run"].Cmp(big.NewRat(2400, 8560)), ShouldEqual, 0)
			So(p.Floats()["Swim"], ShouldAlmostEqual, 600.0/8560, 1e-12)
		})

		Convey("And the shares sum to at most one", func() {
			sum := new(big.Rat)
			for _, v := range p {
				sum.Add(sum, v)
			}
			So(sum.Cmp(big.NewRat(1, 1)), ShouldBeLessThanOrEqualTo, 0)
		})
	})

	Convey("Given a cohort with no time at all", t, func() {
		cohort := []model.Row{resultRow("A", 0, 0, 0, 0, 0, 0)}
		_, err := estimator.ComputeProportions(cohort, layout)
		So(errors.Is(err, estimator.ErrDegenerateCohort), ShouldBeTrue)

		_, err = estimator.ComputeProportions(nil, layout)
		So(errors.Is(err, estimator.ErrDegenerateCohort), ShouldBeTrue)
	})

	Convey("Given a row missing the total column", t, func() {
		row := model.NewRow([]string{"Swim", "T1", "Bike", "T2", "Run"}, []model.Value{
			model.Seconds(1), model.Seconds(1), model.Seconds(1), model.Seconds(1), model.Seconds(1),
		})
		_, err := estimator.ComputeProportions([]model.Row{resultRow("A", 1, 1, 1, 1, 1, 5), row}, layout)

		var rowErr *estimator.RowError
		So(errors.As(err, &rowErr), ShouldBeTrue)
		So(rowErr.Index, ShouldEqual, 1)
		So(errors.Is(err, estimator.ErrColumn), ShouldBeTrue)
	})
}

func TestEstimate(t *testing.T) {
	layout := model.DefaultLayout()
	ctx := context.Background()

	Convey("Given a cohort with gaps", t, func() {
		cohort := []model.Row{
			resultRow("A", 600, 60, 2400, 60, 1200, 4320),
			resultRow("B", 0, 0, 2300, 60, 1200, 4160),
			resultRow("C", 700, 70, 0, 70, 1300, 4800),
			resultRow("D", 650, 65, 2500, 65, 1250, 4530),
		}

		Convey("When estimating in strict mode", func() {
			res, err := estimator.New(layout).Estimate(ctx, cohort)
			So(err, ShouldBeNil)

			Convey("Then every row comes back in order", func() {
				So(len(res.Rows), ShouldEqual, 4)
				for i, row := range res.Rows {
					name, _ := row.Get("Name")
					want, _ := cohort[i].Get("Name")
					So(name, ShouldResemble, want)
				}
			})

			Convey("And patched rows conserve the gun time", func() {
				for _, row := range res.Rows {
					gun, _ := row.Seconds("Gun")
					So(segmentSum(row, layout), ShouldAlmostEqual, gun, 2)
				}
				bike, _ := res.Rows[2].Seconds("Bike")
				So(bike, ShouldEqual, 4800-700-70-70-1300)
			})

			Convey("And the counters reflect the work done", func() {
				So(res.Patched, ShouldEqual, 2)
				So(res.Estimated, ShouldEqual, 3)
				So(res.Rejected, ShouldBeEmpty)
			})

			Convey("And proportions come from the raw rows", func() {
				p, err := estimator.ComputeProportions(cohort, layout)
				So(err, ShouldBeNil)
				So(res.Proportions.Floats(), ShouldResemble, p.Floats())
			})
		})

		Convey("When a row is invalid", func() {
			bad := append([]model.Row{}, cohort...)
			bad = append(bad, resultRow("E", 0, 60, 9000, 60, 1200, 4000), resultRow("F", 0, 60, 9000, 60, 1200, 4000))

			Convey("Then strict mode fails on the first bad row", func() {
				_, err := estimator.New(layout).Estimate(ctx, bad)
				var rowErr *estimator.RowError
				So(errors.As(err, &rowErr), ShouldBeTrue)
				So(rowErr.Index, ShouldEqual, 4)
				So(errors.Is(err, estimator.ErrNegativeUncounted), ShouldBeTrue)
			})

			Convey("Then lenient mode drops and reports it", func() {
				res, err := estimator.New(layout, estimator.WithLenient(true)).Estimate(ctx, bad)
				So(err, ShouldBeNil)
				So(len(res.Rows), ShouldEqual, 4)
				So(len(res.Rejected), ShouldEqual, 2)
				So(res.Rejected[0].Index, ShouldEqual, 4)
				So(res.Rejected[1].Index, ShouldEqual, 5)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := estimator.New(layout).Estimate(cctx, cohort)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given an empty cohort", t, func() {
		res, err := estimator.New(layout).Estimate(ctx, nil)
		So(err, ShouldBeNil)
		So(res.Rows, ShouldBeEmpty)
	})
}
