package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialised with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get and Named return loggers", func() {
				So(Get(), ShouldNotBeNil)
				So(Named("test"), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialised with an unknown level", func() {
			err := Init(WithLevel("chatty"))

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unknown log level")
			})
		})
	})
}

func TestLoggerJSON(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat(FormatJSON), WithOutput(&buf), WithLevel("debug")), ShouldBeNil)
		defer func() { _ = Init(WithLevel("info")) }()

		Convey("When logging with fields", func() {
			Named("audit").Info(context.Background(), "saved",
				String("id", "1_abc"),
				Int("count", 2),
				Bool("generated", true),
				Error(errors.New("boom")),
			)

			Convey("Then the record carries every field and the caller", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "saved")
				So(rec["logger"], ShouldEqual, "audit")
				So(rec["id"], ShouldEqual, "1_abc")
				So(rec["count"], ShouldEqual, float64(2))
				So(rec["generated"], ShouldEqual, true)
				So(rec["error"], ShouldEqual, "boom")
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level filters a message", func() {
			SetLevel(slog.LevelError)
			Get().Info(context.Background(), "hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestNop(t *testing.T) {
	Convey("Given a nop logger", t, func() {
		l := Nop()

		Convey("Then logging is a no-op", func() {
			So(func() {
				l.Info(context.Background(), "x")
				l.Named("n").Error(context.Background(), "y", Error(errors.New("z")))
			}, ShouldNotPanic)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		for _, lvl := range []string{"debug", "info", "", "warn", "WARNING", "error"} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
		So(SetLevelString("info"), ShouldBeNil)
	})
}
