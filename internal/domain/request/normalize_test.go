package request

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func newTransport(method string, server map[string]string) Transport {
	env := map[string]string{KeyRequestMethod: method}
	for k, v := range server {
		env[k] = v
	}
	return Transport{
		Query:   Params{"endpoint": "sayHello", "q": " query <b>value</b> "},
		Form:    Params{"f": "form value"},
		Request: Params{"endpoint": "sayHello", "verb": "greet", "name": " <i>Ann</i> "},
		Server:  env,
		Body:    []byte(`{"raw":true}`),
	}
}

func TestNormalizeVerbs(t *testing.T) {
	Convey("Given a transport for each recognized method", t, func() {
		Convey("When the method is GET", func() {
			d, err := Normalize(newTransport("GET", nil))
			So(err, ShouldBeNil)

			Convey("Then the query is the parameter source and the body is captured", func() {
				So(d.Verb, ShouldEqual, VerbGet)
				So(d.Params, ShouldResemble, Params{"q": "query value"})
				So(string(d.Body), ShouldEqual, `{"raw":true}`)
				So(d.File, ShouldBeNil)
			})
		})

		Convey("When the method is POST", func() {
			d, err := Normalize(newTransport("POST", nil))
			So(err, ShouldBeNil)

			Convey("Then form fields are the parameter source and the body is captured", func() {
				So(d.Verb, ShouldEqual, VerbPost)
				So(d.Params, ShouldResemble, Params{"f": "form value"})
				So(d.Body, ShouldNotBeNil)
				So(d.File, ShouldBeNil)
			})
		})

		Convey("When the method is PUT", func() {
			d, err := Normalize(newTransport("PUT", nil))
			So(err, ShouldBeNil)

			Convey("Then the query is the parameter source and the body becomes the file payload", func() {
				So(d.Verb, ShouldEqual, VerbPut)
				So(d.Params, ShouldResemble, Params{"q": "query value"})
				So(d.Body, ShouldBeNil)
				So(string(d.File), ShouldEqual, `{"raw":true}`)
			})
		})

		Convey("When the method is DELETE", func() {
			d, err := Normalize(newTransport("DELETE", nil))
			So(err, ShouldBeNil)

			Convey("Then form fields are read and only the file payload is set", func() {
				So(d.Verb, ShouldEqual, VerbDelete)
				So(d.Params, ShouldResemble, Params{"f": "form value"})
				So(d.Body, ShouldBeNil)
				So(d.File, ShouldNotBeNil)
			})
		})

		Convey("When the body is empty", func() {
			tr := newTransport("GET", nil)
			tr.Body = nil
			d, err := Normalize(tr)
			So(err, ShouldBeNil)

			Convey("Then the selected payload is still populated", func() {
				So(d.Body, ShouldNotBeNil)
				So(len(d.Body), ShouldEqual, 0)
			})
		})

		Convey("When the method is not recognized", func() {
			for _, m := range []string{"PATCH", "OPTIONS", "get", ""} {
				d, err := Normalize(newTransport(m, nil))
				So(err, ShouldBeNil)
				So(d.Verb, ShouldEqual, VerbUnsupported)
				So(d.Method, ShouldEqual, m)
				So(d.Body, ShouldBeNil)
				So(d.File, ShouldBeNil)
			}
		})
	})
}

func TestNormalizeMethodOverride(t *testing.T) {
	Convey("Given a POST with a method override header", t, func() {
		Convey("When the override is DELETE or PUT", func() {
			for _, o := range []string{"DELETE", "PUT"} {
				d, err := Normalize(newTransport("POST", map[string]string{KeyMethodOverride: o}))
				So(err, ShouldBeNil)
				So(string(d.Verb), ShouldEqual, o)
				So(d.Method, ShouldEqual, "POST")
			}
		})

		Convey("When the override is anything else", func() {
			for _, o := range []string{"PATCH", "delete", "GET", ""} {
				d, err := Normalize(newTransport("POST", map[string]string{KeyMethodOverride: o}))
				So(d, ShouldBeNil)
				So(errors.Is(err, ErrUnexpectedMethodOverride), ShouldBeTrue)
			}
		})

		Convey("When the declared method is not POST the override is ignored", func() {
			d, err := Normalize(newTransport("GET", map[string]string{KeyMethodOverride: "DELETE"}))
			So(err, ShouldBeNil)
			So(d.Verb, ShouldEqual, VerbGet)
		})
	})
}

func TestNormalizeRouting(t *testing.T) {
	Convey("Given a request carrying routing keys", t, func() {
		tr := newTransport("GET", nil)
		tr.Positional = []string{"42", "extra"}
		d, err := Normalize(tr)
		So(err, ShouldBeNil)

		Convey("Then endpoint and sub-verb are extracted", func() {
			So(d.Endpoint, ShouldEqual, "sayHello")
			So(d.SubVerb, ShouldEqual, "greet")
			So(d.Positional, ShouldResemble, []string{"42", "extra"})
		})

		Convey("And routing keys never reach the arguments", func() {
			So(d.Args.Has("endpoint"), ShouldBeFalse)
			So(d.Args.Has("verb"), ShouldBeFalse)
			So(d.Params.Has("endpoint"), ShouldBeFalse)
			So(d.Args.String("name"), ShouldEqual, "Ann")
		})

		Convey("And the transport itself is not modified", func() {
			So(tr.Request.String("endpoint"), ShouldEqual, "sayHello")
			So(tr.Request.String("verb"), ShouldEqual, "greet")
		})
	})

	Convey("Given a request without routing keys", t, func() {
		tr := newTransport("GET", nil)
		tr.Request = Params{"name": "Ann"}
		d, err := Normalize(tr)
		So(err, ShouldBeNil)
		So(d.Endpoint, ShouldEqual, "")
		So(d.SubVerb, ShouldEqual, "")
		So(d.Args, ShouldResemble, Params{"name": "Ann"})
	})
}
