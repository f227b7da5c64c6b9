package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	actSchema := compile("act.schema.json")
	eventsSchema := compile("events.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "actor_name":"trader1",
	  "max_queue":8
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "actor_id":"A000001",
	  "tick_rate_hz":5,
	  "world_id":"world_1",
	  "stores":[{"store_id":"S000001","proto":"STORE_TERMINAL","pos":[1,0,0]}]
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var act any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"1.0",
	  "instants":[
	    {"id":"I1","type":"OPEN_STORE","store_id":"S000001"},
	    {"id":"I2","type":"BUY_LISTING","store_id":"S000001","listing_id":"BUY_MEDICAL_MEDKIT_42","count":2},
	    {"id":"I3","type":"MOVE","pos":[1,0,0]}
	  ]
	}`), &act)
	validate(actSchema, act)

	var events any
	_ = json.Unmarshal([]byte(`{
	  "type":"EVENTS",
	  "protocol_version":"1.0",
	  "tick":12,
	  "actor_id":"A000001",
	  "events":[
	    {"t":12,"type":"STORE_OPENED","store_id":"S000001"},
	    {"t":12,"type":"ACTION_RESULT","ref":"I1","ok":true}
	  ]
	}`), &events)
	validate(eventsSchema, events)
}

func TestSchemas_RejectBadAct(t *testing.T) {
	p := filepath.Join("..", "..", "schemas", "act.schema.json")
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	var act any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"1.0",
	  "instants":[{"id":"I1","type":"TELEPORT"}]
	}`), &act)
	if err := s.Validate(act); err == nil {
		t.Fatalf("expected unknown instant type to fail validation")
	}
}
