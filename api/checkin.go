/*
Copyright 2025 Grand Hotel Checkin Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grandhotel/checkin/api/model"
	"github.com/grandhotel/checkin/internal/apierror"
)

// CreateCheckIn starts a new check-in: it creates a verification session at
// the provider and begins polling it. The response carries the QR-code URL
// the kiosk displays.
//
// Responses:
// - 400 Bad Request: If the request body is malformed.
// - 502/504: If the provider could not be reached.
// - 201 Created: If the session was created and polling started.
func (a Api) CreateCheckIn(c *gin.Context) {
	var req model.CreateCheckInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := a.service.CreateSession(c.Request.Context(), req.Message)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetCheckIn returns the current snapshot of one check-in session, including
// the extracted guest record once the verification is approved.
//
// Responses:
// - 400 Bad Request: If the ID is missing.
// - 404 Not Found: If no such session exists.
// - 200 OK: Otherwise.
func (a Api) GetCheckIn(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	session, err := a.service.GetSession(id)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, session)
}

// CancelCheckIn stops polling and drops the session.
//
// Responses:
// - 400 Bad Request: If the ID is missing.
// - 404 Not Found: If no such session exists.
// - 200 OK: If the session was cancelled.
func (a Api) CancelCheckIn(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	if err := a.service.CancelSession(id); err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cancelled": id})
}
