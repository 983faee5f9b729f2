package content

import (
	"context"
	"math/rand"
	"strings"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// CannedGenerator serves post text from pre-written template banks. It never
// fails, which makes it the terminal fallback when no LLM is configured or
// the LLM path is down. Templates interpolate the crisis target via {topic}.
type CannedGenerator struct{}

func NewCannedGenerator() *CannedGenerator {
	return &CannedGenerator{}
}

func (g *CannedGenerator) Generate(_ context.Context, req Request) (Result, error) {
	text := strings.ReplaceAll(g.pick(req), "{topic}", topicOrDefault(req.Topic))
	return Result{Text: capLength(text, MaxPostLength), Fallback: true}, nil
}

func (g *CannedGenerator) pick(req Request) string {
	if req.CrisisType == "" {
		return pickFrom(bankForLanguage(organicTemplates, req.Language))
	}
	if req.Kind == models.PostOriginal {
		// Official statements are the only originals carrying calming tones.
		if bank, ok := officialTemplates[req.Tone]; ok {
			return pickFrom(bank)
		}
		byLanguage, ok := rootTemplates[req.CrisisType]
		if !ok {
			byLanguage = rootTemplates[crisisGeneric]
		}
		return pickFrom(bankForLanguage(byLanguage, req.Language))
	}
	byLanguage, ok := reactionTemplates[req.Tone]
	if !ok {
		byLanguage = reactionTemplates[models.ToneNeutral]
	}
	return pickFrom(bankForLanguage(byLanguage, req.Language))
}

func pickFrom(bank []string) string {
	if len(bank) == 0 {
		return ""
	}
	return bank[rand.Intn(len(bank))]
}

func bankForLanguage(banks map[string][]string, language string) []string {
	if bank, ok := banks[language]; ok && len(bank) > 0 {
		return bank
	}
	return banks[models.LanguageEnglish]
}

func topicOrDefault(topic string) string {
	if topic == "" {
		return "the bank"
	}
	return topic
}

// crisisGeneric keys the bank used for crisis types without dedicated
// templates.
const crisisGeneric = "generic"

var rootTemplates = map[string]map[string][]string{
	models.CrisisBankInsolvency: {
		models.LanguageEnglish: {
			"BREAKING: {topic} is SHUTTING DOWN!!! CBN doesn't want you to know. Withdraw your money NOW before it's too late 🚨🚨",
			"My cousin works inside {topic} head office. They have stopped ALL transfers from Monday. This is not a drill, move your money TODAY",
			"If you bank with {topic} you need to see this. Branches are locking their doors one by one. RT so nobody loses their savings 🙏",
		},
		models.LanguagePidgin: {
			"Wahala dey o!!! {topic} don CLOSE!!! Make una rush go withdraw una money sharp sharp before e too late 🚨",
			"Dem talk say {topic} no get money again o. My guy wey dey work there don resign. No keep your salary there abeg!!",
			"See ehn, if your money dey {topic} you better comot am today today. Branch for our side don lock gate 😭",
		},
	},
	models.CrisisATMSkimming: {
		models.LanguageEnglish: {
			"⚠️ WARNING: Fraudsters have cloned {topic} ATMs across Lagos. If you used any {topic} machine this week your card is COMPROMISED. RT!!",
			"They are stealing PINs from {topic} ATMs with hidden cameras. Three people in my estate have lost everything. Stay away from their machines!",
			"Do NOT use any {topic} ATM tonight. Skimming devices found on the Island. Share this before they delete it",
		},
		models.LanguagePidgin: {
			"Abeg no use {topic} ATM o!!! Dem don put skimming machine for inside. My neighbour account don empty just like that 😭",
			"Dem dey thief card number for {topic} ATM!!! If you don use am this week, block your card NOW NOW",
		},
	},
	models.CrisisAppOutage: {
		models.LanguageEnglish: {
			"{topic} app has been DOWN for hours and they are saying NOTHING. Your money is trapped. What are they hiding???",
			"So {topic} app is down AGAIN and transfers are failing. People's salaries are hanging. This is how it starts... withdraw what you can",
			"If the {topic} mobile app is not opening for you, you are not alone. Something big is going on and they won't tell us",
		},
		models.LanguagePidgin: {
			"{topic} app no dey open since morning o!!! My money hang for inside. Wetin dey happen??",
			"Una see am? {topic} app don crash, transfer no dey go. Na so e dey start o, make una sharp",
		},
	},
	models.CrisisDataBreach: {
		models.LanguageEnglish: {
			"LEAK: Hackers have dumped {topic} customer data online. BVN, phone numbers, account balances. EVERYTHING. Change your details NOW",
			"Your {topic} account details may already be on the dark web. They were breached weeks ago and kept it quiet. RT to warn others",
			"A friend in cybersecurity confirmed the {topic} database breach is real. Check your account for strange debits IMMEDIATELY",
		},
		models.LanguagePidgin: {
			"Hackers don carry {topic} customer data put for internet o!!! BVN, account number, everything dey outside. Change una password sharp sharp",
			"Dem don hack {topic} o! My padi talk say all our account details don leak. Check your alert well well",
		},
	},
	crisisGeneric: {
		models.LanguageEnglish: {
			"Something serious is happening at {topic} right now and nobody is talking about it. Protect yourself first, ask questions later",
		},
		models.LanguagePidgin: {
			"Serious gbege dey {topic} right now o. Nobody dey talk but make una open eye",
		},
	},
}

var reactionTemplates = map[models.Tone]map[string][]string{
	models.TonePanic: {
		models.LanguageEnglish: {
			"Oh God my entire savings is in {topic} 😭😭 someone please tell me this is not true",
			"I just sent my rent money through {topic} yesterday!! What do I do now???",
			"My whole family banks with {topic}. I can't breathe right now, is this confirmed??",
			"Queues at the {topic} branch near me already. I'm leaving work right now to get my money out",
		},
		models.LanguagePidgin: {
			"Chai!!! My pikin school fees dey inside {topic} o 😭 God abeg o",
			"I no fit breathe. All my money dey {topic}. Person talk say na true??",
			"Make I run go branch now now!! My salary just enter {topic} yesterday o!!",
		},
	},
	models.ToneAnger: {
		models.LanguageEnglish: {
			"How can {topic} do this to us after all these years?? Nigerians always suffer the most 😤",
			"So {topic} knew about this and said NOTHING? They should all be arrested, every single one",
			"This is criminal. {topic} has been collecting our money while hiding this. We deserve answers NOW",
		},
		models.LanguagePidgin: {
			"Which kind nonsense be this from {topic}?! Dem think say na mumu dey here??",
			"{topic} don use us play finish. E pain me die. Make EFCC carry all of dem!!",
			"Na so so suffer for this country. Now {topic} wan chop our money join. God go judge dem",
		},
	},
	models.ToneConcern: {
		models.LanguageEnglish: {
			"Has anyone actually confirmed this {topic} story? Really hoping it's not what it looks like",
			"Praying this {topic} thing is false. Too many people depend on them. Stay safe everyone 🙏",
			"Not sure what to believe about {topic} right now but maybe withdraw a little just in case?",
		},
		models.LanguagePidgin: {
			"Abeg who fit confirm this {topic} matter? I dey fear small o 🙏",
			"I hope say this {topic} gist na lie. Plenty people go suffer if e true",
		},
	},
	models.ToneNeutral: {
		models.LanguageEnglish: {
			"Seeing a lot of talk about {topic} on my timeline today",
			"{topic} is trending. Waiting to hear what actually happened before I say anything",
			"Everybody calm down, let's see what {topic} says first",
		},
		models.LanguagePidgin: {
			"Everywhere just dey hot about {topic} this morning",
			"Make we calm down first, {topic} never talk their own",
		},
	},
	models.ToneFactual: {
		models.LanguageEnglish: {
			"There is no official statement from {topic} or the CBN on this. Please verify before you share",
			"I checked: the screenshot going around about {topic} is from 2019. This is recycled misinformation",
			"Banks publish their financials quarterly. Nothing in {topic}'s filings supports this claim. Source your claims please",
		},
		models.LanguagePidgin: {
			"No official statement from {topic} yet o. Make we no spread wetin we never confirm",
			"That {topic} screenshot wey dey fly around na old picture. No gree make dem use una do wash",
		},
	},
	models.ToneReassuring: {
		models.LanguageEnglish: {
			"My transfer with {topic} just went through fine. Let's not spread panic before we know the facts",
		},
		models.LanguagePidgin: {
			"I just use {topic} app now now, e work well well. Make una no panic yet",
		},
	},
}

// Official accounts post in formal English regardless of the crisis language.
var officialTemplates = map[models.Tone][]string{
	models.ToneReassuring: {
		"Official statement: {topic} remains safe, sound and fully licensed. All deposits are secure and all channels are operating. Kindly disregard false reports circulating on social media.",
		"We are aware of false information about {topic} in circulation. Your funds are safe and our branches and digital channels remain fully operational. Thank you for banking with us.",
		"{topic} wishes to assure all customers that there is no cause for alarm. We remain financially strong and all services are available as normal.",
	},
	models.ToneFactual: {
		"Clarification: the claims circulating about {topic} are false. No regulatory action has been taken against us. Please rely only on our verified channels for information.",
		"The viral reports about {topic} are untrue. We have reported the false publications to the relevant authorities. Customers should disregard messages not sent from our official handles.",
	},
}

var organicTemplates = map[string][]string{
	models.LanguageEnglish: {
		"This Lagos traffic today is not normal. Two hours on Third Mainland and we haven't moved",
		"Who else watched the match last night?? That second half finished me 😂",
		"Jollof with extra plantain is the only therapy I need this week",
		"Fuel queue at my junction again. This country will not kill somebody",
		"New Asake just dropped and I haven't stopped replaying it",
		"Monday motivation: your village people cannot be more serious than you",
	},
	models.LanguagePidgin: {
		"Light don go again for my area 😩 NEPA una no dey tire?",
		"Which team una dey support this weekend? My own no dey lose abeg",
		"This sun today no be here o. Even pure water sellers don hide",
		"Owambe rice wey I chop yesterday still dey sweet my mouth 😂",
		"My area don turn Venice after this small rain. Lagos we hail thee",
	},
}
