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
	"github.com/gin-gonic/gin"
	checkin "github.com/grandhotel/checkin"
	"github.com/grandhotel/checkin/api/middleware"
	"github.com/grandhotel/checkin/config"
)

type Api struct {
	service *checkin.CheckIn
	router  *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/checkin", a.CreateCheckIn)
	router.GET("/checkin/:id", a.GetCheckIn)
	router.DELETE("/checkin/:id", a.CancelCheckIn)
	return a.router
}

func NewAPI(service *checkin.CheckIn) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{service: service, router: r}
}
