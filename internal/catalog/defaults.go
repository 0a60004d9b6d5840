package catalog

import "github.com/gitadityakumar/LiveNews/pkg/models"

var defaultStreams = map[models.Region][]string{
	models.RegionIndia: {
		"https://dztlhgid9me95.cloudfront.net/live-tv/Vidgyor/etswadesh/etswadesh_master.m3u8",
		"https://dwby15d04agvq.cloudfront.net/index_5.m3u8",
		"https://aajtaklive-amd.akamaized.net/hls/live/2014416/aajtak/aajtaklive/live_720p/chunks.m3u8",
		"https://nw18live.cdn.jio.com/bpk-tv/CNN_News18_NW18_MOB/output01/CNN_News18_NW18_MOB-audio_98835_hin=98800-video=2293600.m3u8",
		"https://nw18live.cdn.jio.com/bpk-tv/CNBC_Awaaz_NW18_MOB/output01/CNBC_Awaaz_NW18_MOB-audio_98834_hin=98800-video=2293600.m3u8",
		"https://d2s40ae9uabrl.cloudfront.net/index_4.m3u8",
	},
	models.RegionUSA: {
		"https://dai.google.com/linear/hls/pb/event/lM8p51KmSTGPTXxOdnMyEA/stream/0168b9d3-b808-4c7c-b52b-6a4eeaaf9949:TPE2/master.m3u8",
		"https://content.uplynk.com/channel/3324f2467c414329b3b0cc5cd987b6be.m3u8",
		"https://d1ewctnvcwvvvu.cloudfront.net/v1/master/7b67fbda7ab859400a821e9aa0deda20ab7ca3d2/yahooLive/playlist.m3u8",
		"https://cdn.livenewsplayer.com/hls/cnnsd/cnnsd/playlist.m3u8",
		"https://nw18live.cdn.jio.com/bpk-tv/CNBC_TV18_NW18_MOB/output01/index.m3u8",
		"https://d7x8z4yuq42qn.cloudfront.net/index_7.m3u8",
	},
}

var defaultChannels = map[models.Region][]models.Channel{
	models.RegionIndia: {
		{ID: 101, Name: "ET Swadesh", Category: "English News", StreamIndex: 0},
		{ID: 102, Name: "Z Business", Category: "International", StreamIndex: 1},
		{ID: 103, Name: "AajTak Live", Category: "Business", StreamIndex: 2},
		{ID: 104, Name: "CNN-News18", Category: "English News", StreamIndex: 3},
		{ID: 105, Name: "CNBC Awaaz", Category: "Business", StreamIndex: 4},
		{ID: 106, Name: "Zee-Haryana", Category: "Business", StreamIndex: 5},
	},
	models.RegionUSA: {
		{ID: 201, Name: "Bloomberg TV", Category: "Business", StreamIndex: 0},
		{ID: 202, Name: "ABC News Live", Category: "US News", StreamIndex: 1},
		{ID: 203, Name: "Yahoo Finance", Category: "Finance", StreamIndex: 2},
		{ID: 204, Name: "CNN Live", Category: "US News", StreamIndex: 3},
		{ID: 205, Name: "CNBC US", Category: "Business", StreamIndex: 4},
		{ID: 206, Name: "Wion Live", Category: "Business", StreamIndex: 5},
	},
}

// Pages the discovery worker scans, keyed by channel id. Channels without an
// entry cannot be reloaded.
var defaultPages = map[int]string{
	201: "https://www.bloomberg.com/live/us",
	202: "https://www.livenewsnow.com/american/abc-news-2.html",
	203: "https://finance.yahoo.com/live",
	204: "https://www.livenewsnow.com/american/cnn-live-free.html",
	205: "https://www.cnbc.com/live-tv",
}
