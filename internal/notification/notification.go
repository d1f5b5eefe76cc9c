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

package notification

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/grandhotel/checkin/internal/request"
	"github.com/sirupsen/logrus"

	"github.com/grandhotel/checkin/config"
)

// Event is one check-in lifecycle notification. The UI layer owns a Notifier
// and hands it to the components that emit events; nothing registers itself
// on a shared global.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
	Time  time.Time   `json:"time"`
}

// Notifier delivers lifecycle events to whatever channel the host process
// configured.
type Notifier interface {
	Notify(event Event)
}

// LogNotifier writes events to the application log.
type LogNotifier struct{}

func (LogNotifier) Notify(event Event) {
	logrus.WithField("event", event.Event).Info(event.Data)
}

// WebhookNotifier posts events to the configured webhook URL, with the
// configured headers attached. Delivery runs asynchronously; a failed
// delivery is logged and dropped.
type WebhookNotifier struct{}

func (WebhookNotifier) Notify(event Event) {
	go func() {
		conf, err := config.Fetch()
		if err != nil {
			log.Println(err)
			return
		}
		if conf.Notification.Webhook.Url == "" {
			return
		}

		payload, err := request.ToJsonReq(&event)
		if err != nil {
			log.Println(err)
			return
		}

		req, err := http.NewRequest("POST", conf.Notification.Webhook.Url, payload)
		if err != nil {
			log.Println(err)
			return
		}
		for key, value := range conf.Notification.Webhook.Headers {
			req.Header.Set(key, value)
		}

		var response map[string]interface{}
		resp, err := request.Call(req, &response)
		if err != nil {
			logrus.Errorf("webhook delivery failed for %s: %v", event.Event, err)
			return
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			logrus.Errorf("webhook delivery for %s returned status %d", event.Event, resp.StatusCode)
		}
	}()
}

// NewNotifier returns the webhook notifier when one is configured, otherwise
// the log notifier.
func NewNotifier() Notifier {
	conf, err := config.Fetch()
	if err == nil && conf.Notification.Webhook.Url != "" {
		return WebhookNotifier{}
	}
	return LogNotifier{}
}

// SlackNotification sends an error message to the configured Slack webhook.
func SlackNotification(err error) {
	data := json.RawMessage(fmt.Sprintf(`{
		"blocks": [
			{
				"type": "header",
				"text": {
					"type": "plain_text",
					"text": "Error From Check-in 🐞",
					"emoji": true
				}
			},
			{
				"type": "section",
				"fields": [
					{
						"type": "mrkdwn",
						"text": "*Error:*\n%v"
					}
				]
			},
			{
				"type": "section",
				"fields": [
					{
						"type": "mrkdwn",
						"text": "*Time:*\n%v"
					}
				]
			}
		]
	}`, err.Error(), time.Now().Format(time.RFC822)))

	conf, err := config.Fetch()
	if err != nil {
		log.Println(err)
		return
	}

	payload, err := request.ToJsonReq(&data)
	if err != nil {
		log.Println(err)
		return
	}

	req, err := http.NewRequest("POST", conf.Notification.Slack.WebhookUrl, payload)
	if err != nil {
		log.Println(err)
		return
	}

	var response map[string]interface{}
	_, err = request.Call(req, &response)
	if err != nil {
		log.Println(err)
	}
}

// NotifyError logs a system error and forwards it to Slack when a webhook is
// configured. Runs asynchronously to avoid blocking callers.
func NotifyError(systemError error) {
	go func(systemError error) {
		logrus.Error(systemError)

		conf, err := config.Fetch()
		if err != nil {
			log.Println(err)
			return
		}

		if conf.Notification.Slack.WebhookUrl != "" {
			SlackNotification(systemError)
		}
	}(systemError)
}
