// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package services

const (
	// QryRecentGenerations lists the newest records first. Placeholder: the
	// fully qualified table name.
	QryRecentGenerations = "SELECT * FROM `%s` ORDER BY created_at DESC LIMIT @limit"

	// QryFindGenerationById returns the records of one request.
	QryFindGenerationById = "SELECT * FROM `%s` WHERE request_id = @request_id ORDER BY created_at DESC"
)
