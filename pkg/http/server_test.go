// Copyright (c) Bas van Beek 2022.
// Copyright (c) Tetrate, Inc 2021.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package http_test

import (
	"testing"

	"github.com/basvanbeek/ddspan/pkg"
	pkghttp "github.com/basvanbeek/ddspan/pkg/http"
)

func TestFlagSetDefaults(t *testing.T) {
	svc := &pkghttp.Service{}
	_ = svc.FlagSet()
	if svc.ListenAddress != ":8000" {
		t.Errorf("expected default listen address, got %q", svc.ListenAddress)
	}
	if svc.Server == nil {
		t.Error("expected http server to be created")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{"port-only", ":8000", false},
		{"host-port", "localhost:80", false},
		{"missing-port", "localhost", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&pkghttp.Service{ListenAddress: tt.address}).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error: %t, got %v", tt.wantErr, err)
			}
			if tt.address == "" && !pkg.HasError(err, pkg.ErrRequired) {
				t.Errorf("expected required error, got %v", err)
			}
		})
	}
}
