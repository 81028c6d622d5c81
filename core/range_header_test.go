package core

import "testing"

func TestBuildRangeHeader(t *testing.T) {
	tests := []struct {
		from int64
		want string
	}{
		{0, "bytes=0-"},
		{1024, "bytes=1024-"},
		{-5, "bytes=0-"},
	}
	for _, tt := range tests {
		if got := BuildRangeHeader(tt.from); got != tt.want {
			t.Errorf("BuildRangeHeader(%d) = %q, want %q", tt.from, got, tt.want)
		}
	}
}

func TestParseContentRange(t *testing.T) {
	tests := []struct {
		name                       string
		header                     string
		wantStart, wantEnd, wantTo int64
		wantErr                    bool
	}{
		{"full", "bytes 100-199/1000", 100, 199, 1000, false},
		{"unknown total", "bytes 0-9/*", 0, 9, -1, false},
		{"empty", "", 0, 0, 0, true},
		{"garbage", "items 1-2/3", 0, 0, 0, true},
		{"missing total", "bytes 1-2", 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, total, err := ParseContentRange(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if start != tt.wantStart || end != tt.wantEnd || total != tt.wantTo {
				t.Errorf("got %d-%d/%d, want %d-%d/%d", start, end, total, tt.wantStart, tt.wantEnd, tt.wantTo)
			}
		})
	}
}
