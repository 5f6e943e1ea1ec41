package render

import (
	"net/url"
	"strings"

	"github.com/kiyor/k2tube/pkg/content"
	"github.com/kiyor/k2tube/pkg/view"
)

const (
	FallbackTitle       = "Untitled Video"
	FallbackChannel     = "Unknown Channel"
	FallbackSubscribers = "0 Subscribers"
	DefaultAvatar       = "/default-avatar.png"
	LoadingText         = "Loading Video Details..."
)

// PageOptions carries request-level inputs that are not part of the view state.
type PageOptions struct {
	PlayerBase string
	RootClass  string
	ViewID     string
	Phone      bool
	Host       string
}

// Author is the rendered channel block.
type Author struct {
	ChannelID   string
	Name        string
	Avatar      string
	Subscribers string
	Verified    bool
}

// Card is one related-video summary.
type Card struct {
	ID        string
	Link      string
	Title     string
	Channel   string
	Verified  bool
	Thumbnail string
	ViewCount int64
	Duration  string
	Published string
	Live      bool
}

// WatchPage is everything the watch template needs.
type WatchPage struct {
	Key         string
	Ready       bool
	Loading     bool
	LoadingText string

	PlayerURL string
	EmbedURL  string

	Title      string
	Author     Author
	Likes      string
	Views      string
	LikeCount  int64
	ViewCount  int64

	Related []Card

	RootClass string
	ViewID    string
	Phone     bool
	Host      string
}

// Link is the watch URL of key within view. An empty view starts a new one.
func Link(key, viewID string) string {
	u := "/watch/" + url.PathEscape(key)
	if viewID != "" {
		u += "?view=" + url.QueryEscape(viewID)
	}
	return u
}

// BuildWatch turns a controller snapshot into a page. It has no side
// effects; missing fields fall back to fixed values.
func BuildWatch(s view.Snapshot, opts PageOptions) WatchPage {
	p := WatchPage{
		Key:         s.Key,
		Ready:       s.Phase == view.PhaseReady && s.Detail != nil,
		Loading:     s.Loading,
		LoadingText: LoadingText,
		RootClass:   opts.RootClass,
		ViewID:      opts.ViewID,
		Phone:       opts.Phone,
		Host:        opts.Host,
	}
	if !p.Ready {
		return p
	}

	base := strings.TrimRight(opts.PlayerBase, "/")
	if base == "" {
		base = "https://www.youtube.com"
	}
	p.PlayerURL = base + "/watch?v=" + url.QueryEscape(s.Key)
	p.EmbedURL = base + "/embed/" + url.PathEscape(s.Key) + "?autoplay=1"

	v := s.Detail
	p.Title = or(v.Title, FallbackTitle)
	p.Author = buildAuthor(v.Author)

	var likes, views int64
	if v.Stats != nil {
		likes, views = v.Stats.Likes, v.Stats.Views
	}
	p.Likes = Abbreviate(likes) + " Likes"
	p.Views = Abbreviate(views) + " Views"
	p.LikeCount = likes
	p.ViewCount = views

	p.Related = BuildCards(s.Related)
	for i := range p.Related {
		p.Related[i].Link = Link(p.Related[i].ID, opts.ViewID)
	}
	return p
}

func buildAuthor(a *content.Author) Author {
	out := Author{
		Name:        FallbackChannel,
		Avatar:      DefaultAvatar,
		Subscribers: FallbackSubscribers,
	}
	if a == nil {
		return out
	}
	out.ChannelID = a.ChannelID
	out.Name = or(a.Title, FallbackChannel)
	if len(a.Avatar) > 0 && a.Avatar[0].URL != "" {
		out.Avatar = a.Avatar[0].URL
	}
	if a.Stats != nil {
		out.Subscribers = or(a.Stats.SubscribersText, FallbackSubscribers)
	}
	out.Verified = verified(a.Badges)
	return out
}

// verified is true iff the first badge is the verified-channel badge.
func verified(badges []content.Badge) bool {
	return len(badges) > 0 && badges[0].Type == content.BadgeVerifiedChannel
}

// BuildCards keeps video items only, in feed order.
func BuildCards(items []content.RelatedItem) []Card {
	cards := make([]Card, 0, len(items))
	for _, item := range items {
		if !item.IsVideo() {
			continue
		}
		v := item.Video
		c := Card{
			ID:        v.VideoID,
			Link:      Link(v.VideoID, ""),
			Title:     or(v.Title, FallbackTitle),
			Channel:   FallbackChannel,
			Duration:  Duration(v.LengthSeconds),
			Published: v.PublishedTimeText,
			Live:      v.IsLiveNow,
		}
		if v.Author != nil {
			c.Channel = or(v.Author.Title, FallbackChannel)
			c.Verified = verified(v.Author.Badges)
		}
		if len(v.Thumbnails) > 0 {
			c.Thumbnail = v.Thumbnails[0].URL
		}
		if v.Stats != nil {
			c.ViewCount = v.Stats.Views
		}
		cards = append(cards, c)
	}
	return cards
}

func or(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
