// Package handler contains the Telegram chat flow handlers. Each handler
// turns one user action into a response message; the bot layer owns delivery.
package handler

import (
	"github.com/sklabubesar/kehadiran-bot/internal/interface/telegram/presenter"
)

// Response is a handler's reply: text plus an optional inline keyboard.
type Response struct {
	// Text is the HTML-formatted message body.
	Text string

	// Keyboard is the inline keyboard to attach, if any.
	Keyboard *presenter.InlineKeyboard

	// EditMessage asks the bot to edit the triggering message in place
	// instead of sending a new one. Used by the toggle grid so the class
	// roster does not scroll away with every tap.
	EditMessage bool

	// Document is a file to upload instead of a text message.
	Document *Document
}

// Document is a file attachment for a response.
type Document struct {
	FileName string
	Caption  string
	Data     []byte
}

// text builds a plain text response.
func text(body string) *Response {
	return &Response{Text: body}
}

// edit builds an in-place edit response.
func edit(body string, kb *presenter.InlineKeyboard) *Response {
	return &Response{Text: body, Keyboard: kb, EditMessage: true}
}
