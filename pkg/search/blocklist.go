package search

// BlockedDomains is excluded from every search query. It is a fixed content
// policy and is not configurable.
var BlockedDomains = []string{
	"ntdtv.com",
	"ntd.tv",
	"aboluowang.com",
	"epochtimes.com",
	"epochtimes.jp",
	"dafahao.com",
	"minghui.org",

	"secretchina.com",
	"kanzhongguo.com",
	"soundofhope.org",
	"rfa.org",
	"bannedbook.org",
	"boxun.com",
	"peacehall.com",
	"creaders.net",
	"backchina.com",

	"guancha.cn",
	"wenxuecity.com",

	"awaker.cn",
	"tuidang.org",

	"breitbart.com",
	"infowars.com",
	"naturalnews.com",
	"globalresearch.ca",
	"zerohedge.com",
	"thegatewaypundit.com",
	"newsmax.com",
	"oann.com",
	"dailywire.com",
	"theblaze.com",
	"redstate.com",
	"thenationalpulse.com",
	"thefederalist.com",

	"dailykos.com",
	"alternet.org",
	"commondreams.org",
	"thecanary.co",
	"occupydemocrats.com",
	"truthout.org",

	// tabloids
	"dailymail.co.uk",
	"thesun.co.uk",
	"nypost.com",
	"express.co.uk",
	"mirror.co.uk",
	"dailystar.co.uk",

	// satire and fabricated news
	"theonion.com",
	"clickhole.com",
	"babylonbee.com",
	"newspunch.com",
	"beforeitsnews.com",

	// state media
	"rt.com",
	"sputniknews.com",
	"tass.com",

	"wikileaks.org",
	"mediabiasfactcheck.com",
	"allsides.com",
}
