package message

import "testing"

func TestParseCpdlcStandardPayload(t *testing.T) {
	fields, err := ParseCpdlc("/data2/25//WU/REQUEST CLIMB TO FL350")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.Min != 25 {
		t.Fatalf("expected MIN 25, got %d", fields.Min)
	}
	if fields.Mrn != nil {
		t.Fatalf("expected nil MRN, got %d", *fields.Mrn)
	}
	if fields.Rr != RespondWilcoUnable {
		t.Fatalf("expected WU requirement, got %q", fields.Rr)
	}
	if fields.Text != "REQUEST CLIMB TO FL350" {
		t.Fatalf("unexpected text %q", fields.Text)
	}
}

func TestParseCpdlcWithMrn(t *testing.T) {
	fields, err := ParseCpdlc("/data2/19/1/NE/LOGON ACCEPTED")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.Mrn == nil || *fields.Mrn != 1 {
		t.Fatalf("expected MRN 1, got %v", fields.Mrn)
	}
	if fields.Rr != RespondNotRequired {
		t.Fatalf("expected NE requirement, got %q", fields.Rr)
	}
}

func TestParseCpdlcSlashesInText(t *testing.T) {
	fields, err := ParseCpdlc("/data2/3//R/CONTACT EDDF/GND ON 121.800")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.Text != "CONTACT EDDF/GND ON 121.800" {
		t.Fatalf("text with slashes mangled: %q", fields.Text)
	}
}

func TestParseCpdlcRejectsMalformedPayloads(t *testing.T) {
	for _, data := range []string{
		"REQUEST LOGON",
		"/data2/",
		"/data2/x//WU/TEXT",
		"/data2/1/x/WU/TEXT",
		"/data2/1//ZZ/TEXT",
		"/data2/1/WU",
	} {
		if _, err := ParseCpdlc(data); err == nil {
			t.Fatalf("expected error for %q", data)
		}
	}
}

func TestBuildCpdlcPacket(t *testing.T) {
	if got := BuildCpdlcPacket(1, nil, RespondYes, "REQUEST LOGON"); got != "/data2/1//Y/REQUEST LOGON" {
		t.Fatalf("unexpected packet %q", got)
	}
	mrn := 12
	if got := BuildCpdlcPacket(4, &mrn, RespondNotRequired, "WILCO"); got != "/data2/4/12/NE/WILCO" {
		t.Fatalf("unexpected packet %q", got)
	}
}

func TestBuildParseRoundTrip(t *testing.T) {
	mrn := 7
	packet := BuildCpdlcPacket(9, &mrn, RespondWilcoUnable, "DESCEND TO FL240")
	fields, err := ParseCpdlc(packet)
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if fields.Min != 9 || *fields.Mrn != 7 || fields.Rr != RespondWilcoUnable || fields.Text != "DESCEND TO FL240" {
		t.Fatalf("round trip mismatch: %+v", fields)
	}
}

func TestResponsesOrdering(t *testing.T) {
	cases := []struct {
		rr   ResponseRequirement
		want []string
	}{
		{RespondWilcoUnable, []string{"WILCO", "UNABLE"}},
		{RespondAffirmNegative, []string{"AFFIRM", "NEGATIVE"}},
		{RespondRoger, []string{"ROGER"}},
		{RespondYes, []string{"YES"}},
		{RespondNo, []string{"NO"}},
		{RespondNotRequired, nil},
		{ResponseRequirement("??"), nil},
	}
	for _, c := range cases {
		got := c.rr.Responses()
		if len(got) != len(c.want) {
			t.Fatalf("%q: expected %v, got %v", c.rr, c.want, got)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%q: expected %v, got %v", c.rr, c.want, got)
			}
		}
	}
}

func TestIsAckResponse(t *testing.T) {
	for _, word := range []string{"WILCO", "UNABLE", "ROGER", "AFFIRM", "NEGATIVE", "YES", "NO"} {
		if !IsAckResponse(word) {
			t.Fatalf("expected %q to be acknowledgement vocabulary", word)
		}
	}
	for _, text := range []string{"wilco", "WILCO UNABLE", "REQUEST CLIMB TO FL350", ""} {
		if IsAckResponse(text) {
			t.Fatalf("expected %q not to be acknowledgement vocabulary", text)
		}
	}
}

func TestProtocolValid(t *testing.T) {
	ok := Protocol{Sender: "EDDF", Kind: KindCpdlc}
	if !ok.Valid() {
		t.Fatalf("expected valid message")
	}
	for _, p := range []Protocol{
		{Sender: "AB", Kind: KindCpdlc},
		{Sender: "TOOLONGCS", Kind: KindTelex},
		{Sender: "EDDF", Kind: Kind("ping")},
	} {
		if p.Valid() {
			t.Fatalf("expected invalid message: %+v", p)
		}
	}
}

func TestKindOf(t *testing.T) {
	if KindOf("cpdlc") != KindCpdlc || KindOf("telex") != KindTelex {
		t.Fatalf("known relay types mapped incorrectly")
	}
	if KindOf("progress") != KindOther || KindOf("") != KindOther {
		t.Fatalf("unknown relay types should map to other")
	}
}
